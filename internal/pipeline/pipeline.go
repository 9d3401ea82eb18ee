package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/wikicrawl/internal/model"
)

// Step is one stage of a crawl session.
type Step interface {
	// Do performs the step, reading and updating the report.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name returns the step name recorded in the report and in logs.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	// finalizers run after steps regardless of the outcome.
	finalizers []Step

	logger *slog.Logger

	// continueOnError runs the remaining steps after a failure.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running the remaining steps after a failure.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalizers appends steps that always run after the regular steps.
// They receive a context that is not cancelled with the caller's.
func (p *Pipeline) AddFinalizers(steps ...Step) {
	p.finalizers = append(p.finalizers, steps...)
}

// Execute runs the steps, then the finalizers. It returns the first step
// error (or the context error on cancellation); finalizer errors are
// returned only when the steps succeeded.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	err := p.runSteps(ctx, report)

	finalCtx := context.WithoutCancel(ctx)
	for _, step := range p.finalizers {
		if ferr := p.runStep(finalCtx, step, report); ferr != nil && err == nil {
			err = ferr
		}
	}

	return err
}

func (p *Pipeline) runSteps(ctx context.Context, report *model.CrawlReport) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			report.Cancelled = true
			return err
		}

		if err := p.runStep(ctx, step, report); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}
	return firstErr
}

func (p *Pipeline) runStep(ctx context.Context, step Step, report *model.CrawlReport) error {
	p.logger.Info("executing step",
		"step", step.Name(),
		"session", report.ID,
	)

	if err := step.Do(ctx, report); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"session", report.ID,
			"error", err,
		)
		if report.Error == nil {
			report.Error = err
			report.ErrorMessage = err.Error()
		}
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"session", report.ID,
	)
	report.PerformedSteps = append(report.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of regular steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of the steps and then the finalizers.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps)+len(p.finalizers))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalizers {
		names = append(names, step.Name())
	}
	return names
}
