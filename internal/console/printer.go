package console

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 60

// Printer writes report lines to an underlying writer. Write errors are
// ignored; the report is best-effort console output.
type Printer struct {
	w io.Writer
	s styles
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, s: newStyles(w)}
}

// Title prints a bold banner line preceded by a blank line.
func (p *Printer) Title(text string) {
	p.printf("\n%s\n", p.s.title.Render(text))
}

// Header prints a framed section header.
func (p *Printer) Header(text string) {
	rule := strings.Repeat("=", ruleWidth)
	p.printf("\n%s\n", p.s.header.Render(rule))
	p.printf("%s\n", p.s.header.Render("  "+text))
	p.printf("%s\n", p.s.header.Render(rule))
}

// Check prints a PASS/FAIL line. The hint is shown only for failures.
func (p *Printer) Check(name string, passed bool, hint string) {
	status := p.s.success.Render("✓ PASS")
	if !passed {
		status = p.s.failure.Render("✗ FAIL")
	}
	p.printf("  %s - %s\n", status, name)
	if hint != "" && !passed {
		p.printf("         %s\n", p.s.warning.Render("→ "+hint))
	}
}

// Warning prints an indented warning line.
func (p *Printer) Warning(text string) {
	p.printf("  %s\n", p.s.warning.Render("⚠ WARNING: "+text))
}

// Info prints an indented informational line.
func (p *Printer) Info(text string) {
	p.printf("  %s\n", p.s.info.Render("ℹ "+text))
}

// Success prints a ✓-prefixed line.
func (p *Printer) Success(text string) {
	p.printf("%s\n", p.s.success.Render("✓ "+text))
}

// Failure prints a ✗-prefixed line.
func (p *Printer) Failure(text string) {
	p.printf("%s\n", p.s.failure.Render("✗ "+text))
}

// Notice prints a ⚠-prefixed line without the WARNING label.
func (p *Printer) Notice(text string) {
	p.printf("%s\n", p.s.warning.Render("⚠ "+text))
}

// Summary prints a bold, coloured closing line.
func (p *Printer) Summary(ok bool, text string) {
	style := p.s.success
	if !ok {
		style = p.s.failure
	}
	p.printf("  %s\n", style.Inherit(p.s.strong).Render(text))
}

// Line prints text verbatim.
func (p *Printer) Line(text string) {
	p.printf("%s\n", text)
}

// Linef prints a formatted line.
func (p *Printer) Linef(format string, args ...any) {
	p.printf(format+"\n", args...)
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}
