package pipeline

import (
	"context"

	infra "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
)

// RunRecorder is the audit log a conversion reports to.
type RunRecorder interface {
	StartRun(ctx context.Context, source string) (string, error)
	MarkRunFailed(ctx context.Context, runID string, runErr error)
	MarkRunSucceeded(ctx context.Context, runID string, summary infra.RunSummary) error
}

var _ RunRecorder = (*infra.RunRecorder)(nil)
