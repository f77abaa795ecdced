package diagnostics

import (
	"github.com/eugenenazirov/voicectl/internal/console"
)

const (
	summaryPassed = "All checks passed! Ready for deployment."
	summaryFailed = "Some checks failed. Please fix the issues above."
)

// ConsoleReporter prints results as they arrive.
type ConsoleReporter struct {
	p *console.Printer
}

// NewConsoleReporter wraps p.
func NewConsoleReporter(p *console.Printer) *ConsoleReporter {
	return &ConsoleReporter{p: p}
}

// Section prints a section header.
func (c *ConsoleReporter) Section(title string) {
	c.p.Header(title)
}

// Result prints the check line followed by its warnings and notes.
func (c *ConsoleReporter) Result(res Result) {
	c.p.Check(res.Name, res.Passed, res.Hint)
	for _, w := range res.Warnings {
		c.p.Warning(w)
	}
	for _, n := range res.Notes {
		c.p.Info(n)
	}
}

// Summary prints the closing section.
func (c *ConsoleReporter) Summary(report Report) {
	c.p.Header("Summary")
	if report.Passed() {
		c.p.Summary(true, summaryPassed)
	} else {
		c.p.Summary(false, summaryFailed)
	}
	c.p.Line("")
}
