package diagnostics

import (
	"context"
	"errors"
	"fmt"
)

// Result is the outcome of a single check.
type Result struct {
	Name   string
	Passed bool
	// Hint is the remediation shown when the check fails.
	Hint     string
	Warnings []string
	Notes    []string
	// Err classifies a failure (ErrDependency, ErrResourceUnavailable, ...).
	Err error
}

// Pass builds a passing result.
func Pass(name string) Result {
	return Result{Name: name, Passed: true}
}

// Fail builds a failing result with a remediation hint.
func Fail(name, hint string, err error) Result {
	return Result{Name: name, Hint: hint, Err: err}
}

// Check is a named, independent diagnostic.
type Check struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Section groups checks under a report heading.
type Section struct {
	Title  string
	Checks []Check
}

// SectionReport holds the results of one section in registration order.
type SectionReport struct {
	Title   string
	Results []Result
}

// Report is the aggregate of a run.
type Report struct {
	RunID    string
	Sections []SectionReport
}

// Total counts executed checks.
func (r Report) Total() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Results)
	}
	return n
}

// Failed counts failing checks.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sections {
		for _, res := range s.Results {
			if !res.Passed {
				n++
			}
		}
	}
	return n
}

// Passed is the logical AND of every result.
func (r Report) Passed() bool {
	return r.Failed() == 0
}

// ExitCode is 0 when every check passed and 1 otherwise.
func (r Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

// Err summarises failures, joining the classified errors of failing checks.
func (r Report) Err() error {
	if r.Passed() {
		return nil
	}
	errs := []error{fmt.Errorf("%w: %d of %d", ErrChecksFailed, r.Failed(), r.Total())}
	for _, s := range r.Sections {
		for _, res := range s.Results {
			if !res.Passed && res.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
			}
		}
	}
	return errors.Join(errs...)
}
