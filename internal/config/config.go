package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/voicectl/internal/creds"
	"github.com/eugenenazirov/voicectl/internal/launcher"
)

const (
	defaultPython       = "python3"
	defaultNode         = "node"
	defaultFrontendPort = 8103
	defaultMinMemoryMB  = 2048
	defaultMinPython    = "3.11"
	defaultMinNode      = "18"
	defaultProbeTimeout = 10 * time.Second
	defaultProbeRPS     = 2.0
	defaultProbeBurst   = 1
)

// Environment variables consulted by Load.
const (
	EnvRoot         = "VOICECTL_ROOT"
	EnvPython       = "VOICECTL_PYTHON"
	EnvFrontendPort = "VOICECTL_FRONTEND_PORT"
	EnvProxy        = "VOICECTL_PROXY"
	EnvProbeTimeout = "VOICECTL_PROBE_TIMEOUT"
)

// Config aggregates toolkit settings resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	// Root is the project root; empty means "discover from the working directory".
	Root         string
	Python       string
	Node         string
	FrontendPort int
	MinMemoryMB  int
	MinPython    string
	MinNode      string
	Paths        Paths
	Sync         Sync
	Verify       Verify
	Launcher     Launcher
	Probe        Probe
}

// Paths are relative to Root unless absolute.
type Paths struct {
	RootEnv       string
	FrontendEnv   string
	BackendEnv    string
	LogsDir       string
	DocsDir       string
	BackendScript string
	Requirements  string
}

// Sync configures CredentialSync.
type Sync struct {
	TargetKeys []string
	Aliases    map[string]string
}

// Verify configures CredentialComparator.
type Verify struct {
	Keys []string
}

// Launcher configures the backend launcher and installer.
type Launcher struct {
	StripEnv []string
}

// Probe configures connectivity probes.
type Probe struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
	Proxy   string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Root         string       `yaml:"root"`
	Python       string       `yaml:"python"`
	Node         string       `yaml:"node"`
	FrontendPort int          `yaml:"frontend_port"`
	MinMemoryMB  int          `yaml:"min_memory_mb"`
	MinPython    string       `yaml:"min_python"`
	MinNode      string       `yaml:"min_node"`
	Paths        yamlPaths    `yaml:"paths"`
	Sync         yamlSync     `yaml:"sync"`
	Verify       yamlVerify   `yaml:"verify"`
	Launcher     yamlLauncher `yaml:"launcher"`
	Probe        yamlProbe    `yaml:"probe"`
}

type yamlPaths struct {
	RootEnv       string `yaml:"root_env"`
	FrontendEnv   string `yaml:"frontend_env"`
	BackendEnv    string `yaml:"backend_env"`
	LogsDir       string `yaml:"logs_dir"`
	DocsDir       string `yaml:"docs_dir"`
	BackendScript string `yaml:"backend_script"`
	Requirements  string `yaml:"requirements"`
}

type yamlSync struct {
	TargetKeys []string          `yaml:"target_keys"`
	Aliases    map[string]string `yaml:"aliases"`
}

type yamlVerify struct {
	Keys []string `yaml:"keys"`
}

type yamlLauncher struct {
	StripEnv []string `yaml:"strip_env"`
}

// yamlProbe represents the probe section in YAML. Pointers distinguish an
// explicit zero from an absent key.
type yamlProbe struct {
	Timeout string   `yaml:"timeout"`
	RPS     *float64 `yaml:"rps"`
	Burst   *int     `yaml:"burst"`
	Proxy   string   `yaml:"proxy"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile string
	Root       *string
	Python     *string
	Port       *int
	Proxy      *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Python:       defaultPython,
		Node:         defaultNode,
		FrontendPort: defaultFrontendPort,
		MinMemoryMB:  defaultMinMemoryMB,
		MinPython:    defaultMinPython,
		MinNode:      defaultMinNode,
		Paths: Paths{
			RootEnv:       ".env",
			FrontendEnv:   filepath.Join("frontend", ".env.local"),
			BackendEnv:    filepath.Join("backend", ".env"),
			LogsDir:       "logs",
			DocsDir:       "docs",
			BackendScript: filepath.Join("backend", "voice_agent_openai.py"),
			Requirements:  filepath.Join("backend", "requirements.txt"),
		},
		Sync: Sync{
			TargetKeys: creds.DefaultTargetKeys(),
			Aliases:    creds.DefaultAliases(),
		},
		Verify:   Verify{Keys: creds.DefaultCompareKeys()},
		Launcher: Launcher{StripEnv: launcher.DefaultStripKeys()},
		Probe: Probe{
			Timeout: defaultProbeTimeout,
			RPS:     defaultProbeRPS,
			Burst:   defaultProbeBurst,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, y *yamlConfig) error {
	setString(&cfg.Root, y.Root)
	setString(&cfg.Python, y.Python)
	setString(&cfg.Node, y.Node)
	setString(&cfg.MinPython, y.MinPython)
	setString(&cfg.MinNode, y.MinNode)
	if y.FrontendPort != 0 {
		cfg.FrontendPort = y.FrontendPort
	}
	if y.MinMemoryMB != 0 {
		cfg.MinMemoryMB = y.MinMemoryMB
	}

	setString(&cfg.Paths.RootEnv, y.Paths.RootEnv)
	setString(&cfg.Paths.FrontendEnv, y.Paths.FrontendEnv)
	setString(&cfg.Paths.BackendEnv, y.Paths.BackendEnv)
	setString(&cfg.Paths.LogsDir, y.Paths.LogsDir)
	setString(&cfg.Paths.DocsDir, y.Paths.DocsDir)
	setString(&cfg.Paths.BackendScript, y.Paths.BackendScript)
	setString(&cfg.Paths.Requirements, y.Paths.Requirements)

	if len(y.Sync.TargetKeys) > 0 {
		cfg.Sync.TargetKeys = y.Sync.TargetKeys
	}
	if y.Sync.Aliases != nil {
		cfg.Sync.Aliases = y.Sync.Aliases
	}
	if len(y.Verify.Keys) > 0 {
		cfg.Verify.Keys = y.Verify.Keys
	}
	if y.Launcher.StripEnv != nil {
		cfg.Launcher.StripEnv = y.Launcher.StripEnv
	}

	if y.Probe.Timeout != "" {
		d, err := time.ParseDuration(y.Probe.Timeout)
		if err != nil {
			return fmt.Errorf("probe.timeout: %w", err)
		}
		cfg.Probe.Timeout = d
	}
	if y.Probe.RPS != nil {
		cfg.Probe.RPS = *y.Probe.RPS
	}
	if y.Probe.Burst != nil {
		cfg.Probe.Burst = *y.Probe.Burst
	}
	setString(&cfg.Probe.Proxy, y.Probe.Proxy)

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if root := strings.TrimSpace(os.Getenv(EnvRoot)); root != "" {
		cfg.Root = root
	}

	if python := strings.TrimSpace(os.Getenv(EnvPython)); python != "" {
		cfg.Python = python
	}

	if port := strings.TrimSpace(os.Getenv(EnvFrontendPort)); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvFrontendPort, port)
		}
		cfg.FrontendPort = value
	}

	if proxy := strings.TrimSpace(os.Getenv(EnvProxy)); proxy != "" {
		cfg.Probe.Proxy = proxy
	}

	if timeout := strings.TrimSpace(os.Getenv(EnvProbeTimeout)); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProbeTimeout, err)
		}
		cfg.Probe.Timeout = d
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Root != nil && *overrides.Root != "" {
		cfg.Root = *overrides.Root
	}
	if overrides.Python != nil && *overrides.Python != "" {
		cfg.Python = *overrides.Python
	}
	if overrides.Port != nil && *overrides.Port > 0 {
		cfg.FrontendPort = *overrides.Port
	}
	if overrides.Proxy != nil && *overrides.Proxy != "" {
		cfg.Probe.Proxy = *overrides.Proxy
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.FrontendPort <= 0 || cfg.FrontendPort > 65535 {
		return fmt.Errorf("frontend port must be within 1-65535, got %d", cfg.FrontendPort)
	}
	if cfg.MinMemoryMB <= 0 {
		return fmt.Errorf("min_memory_mb must be positive, got %d", cfg.MinMemoryMB)
	}
	if cfg.Python == "" {
		return fmt.Errorf("python interpreter cannot be empty")
	}
	for name, v := range map[string]string{"min_python": cfg.MinPython, "min_node": cfg.MinNode} {
		if _, err := semver.NewConstraint(">= " + v); err != nil {
			return fmt.Errorf("%s %q is not a version: %w", name, v, err)
		}
	}
	if len(cfg.Sync.TargetKeys) == 0 {
		return fmt.Errorf("sync target keys cannot be empty")
	}
	if len(cfg.Verify.Keys) == 0 {
		return fmt.Errorf("verify keys cannot be empty")
	}
	if cfg.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", cfg.Probe.Timeout)
	}
	if cfg.Probe.RPS < 0 {
		return fmt.Errorf("probe rps must be >= 0")
	}
	if cfg.Probe.Burst < 0 {
		return fmt.Errorf("probe burst must be >= 0")
	}
	return nil
}

// Path resolves p against Root.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// MinMemoryBytes converts MinMemoryMB to bytes.
func (c Config) MinMemoryBytes() uint64 {
	return uint64(c.MinMemoryMB) << 20
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
