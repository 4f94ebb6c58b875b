package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// RunRecorder is the concrete audit log for conversion runs. It holds a
// shared BigQuery client to avoid a new connection per operation.
type RunRecorder struct {
	client    *bigquery.Client
	datasetID string
}

// NewRunRecorder opens a BigQuery client for projectID.
func NewRunRecorder(ctx context.Context, projectID, datasetID string) (*RunRecorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRunRecorder: creating client: %w", err)
	}
	return &RunRecorder{client: client, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *RunRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *RunRecorder) StartRun(ctx context.Context, source string) (string, error) {
	return StartConversionRunWithClient(ctx, r.client, r.datasetID, source)
}

func (r *RunRecorder) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	MarkConversionRunFailedWithClient(ctx, r.client, r.datasetID, runID, runErr)
}

func (r *RunRecorder) MarkRunSucceeded(ctx context.Context, runID string, summary RunSummary) error {
	return MarkConversionRunSucceededWithClient(ctx, r.client, r.datasetID, runID, summary)
}

func (r *RunRecorder) ListRuns(ctx context.Context, limit int) ([]*ConversionRunRow, error) {
	return ListConversionRunsWithClient(ctx, r.client, r.datasetID, limit)
}
