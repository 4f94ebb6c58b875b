package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledgerconv/internal/logger"
)

// StartConversionRunWithClient inserts a new row into <dataset>.conversion_runs
// with status=RUNNING and returns the generated run_id.
func StartConversionRunWithClient(ctx context.Context, client *bigquery.Client, datasetID, source string) (string, error) {
	runID := uuid.NewString()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			source,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@source,
			@started_ts,
			@status
		)
	`, datasetID, conversionRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source", Value: source},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("StartConversionRun: %w", err)
	}
	return runID, nil
}

// MarkConversionRunFailedWithClient sets status=FAILED, finished_ts and
// error_message. Failures are logged, not returned.
func MarkConversionRunFailedWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorLen {
			errMsg = errMsg[:maxErrorLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, datasetID, conversionRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := runDML(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkConversionRunFailed: update failed")
	}
}

// MarkConversionRunSucceededWithClient sets status=SUCCESS, finished_ts and
// the run summary, and clears error_message.
func MarkConversionRunSucceededWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, summary RunSummary) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    output_object = @output_object,
		    years_count = @years_count,
		    warnings_count = @warnings_count
		WHERE run_id = @run_id
	`, datasetID, conversionRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "output_object", Value: summary.OutputObject},
		{Name: "years_count", Value: int64(summary.Years)},
		{Name: "warnings_count", Value: int64(summary.Warnings)},
		{Name: "run_id", Value: runID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("MarkConversionRunSucceeded: %w", err)
	}
	return nil
}

// ListConversionRunsWithClient returns the most recent runs, newest first.
func ListConversionRunsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, limit int) ([]*ConversionRunRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			source,
			started_ts,
			finished_ts,
			status,
			error_message,
			output_object,
			years_count,
			warnings_count
		FROM %s.%s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, datasetID, conversionRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListConversionRuns: reading query: %w", err)
	}

	var runs []*ConversionRunRow
	for {
		var row ConversionRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListConversionRuns: iterating: %w", err)
		}
		runs = append(runs, &row)
	}

	return runs, nil
}

func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
