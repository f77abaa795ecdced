package diagnostics

import (
	"net"

	"github.com/eugenenazirov/voicectl/internal/envcheck"
)

// Section titles in run order.
const (
	SectionSystem       = "System Requirements"
	SectionEnvironment  = "Environment Configuration"
	SectionDependencies = "Dependencies"
	SectionRuntime      = "Runtime"
	SectionConnectivity = "Connectivity"
)

// Options parameterises the deployment checklist. Paths are absolute.
type Options struct {
	Python    string
	Node      string
	MinPython string
	MinNode   string
	MinMemory uint64

	RootEnv     string
	FrontendEnv string
	LogsDir     string
	DocsDir     string

	FrontendPort int

	Run    CommandRunner
	Listen ListenFunc
	Memory MemoryReader
}

func (o Options) withDefaults() Options {
	if o.Run == nil {
		o.Run = ExecCommand
	}
	if o.Listen == nil {
		o.Listen = net.Listen
	}
	if o.Memory == nil {
		o.Memory = SystemMemory
	}
	return o
}

// Checklist returns the deployment sections in run order.
func Checklist(opts Options) []Section {
	o := opts.withDefaults()

	return []Section{
		{
			Title: SectionSystem,
			Checks: []Check{
				PythonVersionCheck(o.Run, o.Python, o.MinPython),
				NodeVersionCheck(o.Run, o.Node, o.MinNode),
				MemoryCheck(o.Memory, o.MinMemory),
			},
		},
		{
			Title: SectionEnvironment,
			Checks: []Check{
				EnvFileCheck(".env", o.RootEnv, envcheck.BackendKeys(), "Run: cp .env.example .env"),
				EnvFileCheck("Frontend .env.local", o.FrontendEnv, envcheck.FrontendKeys(), "Run: cp .env frontend/.env.local"),
				LiveKitURLCheck(o.RootEnv),
			},
		},
		{
			Title: SectionDependencies,
			Checks: []Check{
				DependencyCheck("livekit-agents 1.0+ installed", o.Run,
					"Run: pip install -r backend/requirements.txt", false,
					o.Python, "-c", "from livekit.agents.voice import Agent"),
				DependencyCheck("PM2 installed", o.Run, "Run: npm install -g pm2", true, "pm2", "--version"),
			},
		},
		{
			Title: SectionRuntime,
			Checks: []Check{
				PortCheck(o.Listen, o.FrontendPort, "frontend"),
				EnsureDirCheck(o.LogsDir),
				RequireDirCheck(o.DocsDir, "RAG documents directory missing"),
			},
		},
	}
}
