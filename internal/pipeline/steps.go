package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/report"
	"github.com/dvloznov/ledgerconv/internal/rollup"
	"github.com/dvloznov/ledgerconv/internal/source"
)

// PipelineStep represents a single step in the conversion pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Options Options
	RunID   string

	Sources      *source.Sources
	Expenditure  *ledger.Ledger
	Revenue      *ledger.Ledger
	Warnings     []ledger.RowCoercionWarning
	Registry     *ledger.Registry
	YearResults  []rollup.YearResult
	Document     *report.Document
	BytesWritten int
	PublishedURI string

	cleanups []func()
}

// onCleanup registers fn to run once the pipeline has finished.
func (s *PipelineState) onCleanup(fn func()) {
	s.cleanups = append(s.cleanups, fn)
}

// Cleanup runs registered cleanups in reverse order.
func (s *PipelineState) Cleanup() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Execute runs all steps in the pipeline sequentially, stopping at the first
// failure or when ctx is done.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}
