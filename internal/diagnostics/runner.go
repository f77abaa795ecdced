package diagnostics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reporter receives results as they are produced.
type Reporter interface {
	Section(title string)
	Result(res Result)
}

type nopReporter struct{}

func (nopReporter) Section(string) {}
func (nopReporter) Result(Result)  {}

// Runner executes registered sections in order.
type Runner struct {
	sections []Section
	logger   *zap.Logger
	reporter Reporter
	newID    func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithReporter streams results to rep while the run progresses.
func WithReporter(rep Reporter) RunnerOption {
	return func(r *Runner) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// WithRunID overrides run ID generation, primarily for tests.
func WithRunID(fn func() string) RunnerOption {
	return func(r *Runner) {
		r.newID = fn
	}
}

// NewRunner constructs a Runner over sections.
func NewRunner(logger *zap.Logger, sections []Section, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		sections: sections,
		logger:   logger,
		reporter: nopReporter{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every check once. Failures never stop the run.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{RunID: r.newID()}
	logger := r.logger.With(zap.String("run_id", report.RunID))
	logger.Debug("diagnostics started", zap.Int("sections", len(r.sections)))

	for _, section := range r.sections {
		r.reporter.Section(section.Title)
		sr := SectionReport{Title: section.Title}

		for _, check := range section.Checks {
			res := r.runCheck(ctx, check)
			sr.Results = append(sr.Results, res)
			r.reporter.Result(res)

			fields := []zap.Field{
				zap.String("section", section.Title),
				zap.String("check", res.Name),
				zap.Bool("passed", res.Passed),
			}
			if res.Err != nil {
				fields = append(fields, zap.Error(res.Err))
			}
			logger.Debug("check completed", fields...)
		}

		report.Sections = append(report.Sections, sr)
	}

	logger.Debug("diagnostics finished",
		zap.Int("total", report.Total()),
		zap.Int("failed", report.Failed()),
	)
	return report
}

func (r *Runner) runCheck(ctx context.Context, check Check) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("check panicked", zap.String("check", check.Name), zap.Any("error", rec))
			res = Fail(check.Name, fmt.Sprintf("check aborted unexpectedly: %v", rec), nil)
		}
	}()

	res = check.Run(ctx)
	if res.Name == "" {
		res.Name = check.Name
	}
	return res
}
