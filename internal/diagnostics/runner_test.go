package diagnostics

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

type recordingReporter struct {
	sections []string
	results  []Result
}

func (r *recordingReporter) Section(title string) { r.sections = append(r.sections, title) }
func (r *recordingReporter) Result(res Result)    { r.results = append(r.results, res) }

func countingCheck(name string, calls map[string]int, passed bool) Check {
	return Check{
		Name: name,
		Run: func(context.Context) Result {
			calls[name]++
			if passed {
				return Pass(name)
			}
			return Fail(name, "fix "+name, ErrDependency)
		},
	}
}

func TestRunnerExecutesEveryCheckOnce(t *testing.T) {
	calls := map[string]int{}
	sections := []Section{
		{Title: "A", Checks: []Check{
			countingCheck("a1", calls, false),
			countingCheck("a2", calls, true),
		}},
		{Title: "B", Checks: []Check{
			countingCheck("b1", calls, false),
			{Name: "boom", Run: func(context.Context) Result {
				calls["boom"]++
				panic("unexpected")
			}},
			countingCheck("b2", calls, true),
		}},
	}

	rep := &recordingReporter{}
	runner := NewRunner(zaptest.NewLogger(t), sections,
		WithReporter(rep),
		WithRunID(func() string { return "run-1" }),
	)
	report := runner.Run(context.Background())

	for _, name := range []string{"a1", "a2", "b1", "boom", "b2"} {
		if calls[name] != 1 {
			t.Fatalf("check %s ran %d times, want 1", name, calls[name])
		}
	}
	if report.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", report.RunID)
	}
	if report.Total() != 5 || report.Failed() != 3 {
		t.Fatalf("expected 5 total / 3 failed, got %d / %d", report.Total(), report.Failed())
	}
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", report.ExitCode())
	}
	if len(rep.sections) != 2 || len(rep.results) != 5 {
		t.Fatalf("reporter saw %d sections and %d results", len(rep.sections), len(rep.results))
	}
	if rep.results[3].Name != "boom" || rep.results[3].Passed {
		t.Fatalf("panicking check should be reported as failed: %+v", rep.results[3])
	}

	err := report.Err()
	if !errors.Is(err, ErrChecksFailed) || !errors.Is(err, ErrDependency) {
		t.Fatalf("expected joined ErrChecksFailed and ErrDependency, got %v", err)
	}
}

func TestRunnerAllPassedExitsZero(t *testing.T) {
	calls := map[string]int{}
	runner := NewRunner(nil, []Section{{Title: "A", Checks: []Check{
		countingCheck("a1", calls, true),
		countingCheck("a2", calls, true),
	}}})

	report := runner.Run(context.Background())
	if report.ExitCode() != 0 || report.Err() != nil {
		t.Fatalf("expected success, got exit %d err %v", report.ExitCode(), report.Err())
	}
	if report.RunID == "" {
		t.Fatalf("expected generated run id")
	}
}

func TestRunnerFillsMissingResultName(t *testing.T) {
	runner := NewRunner(nil, []Section{{Title: "A", Checks: []Check{
		{Name: "unnamed", Run: func(context.Context) Result { return Result{Passed: true} }},
	}}})

	report := runner.Run(context.Background())
	if got := report.Sections[0].Results[0].Name; got != "unnamed" {
		t.Fatalf("expected check name to be used, got %q", got)
	}
}
