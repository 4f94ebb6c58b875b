package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Run statuses written to conversion_runs.status.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

const conversionRunsTable = "conversion_runs"

// maxErrorLen truncates error_message.
const maxErrorLen = 2000

type ConversionRunRow struct {
	RunID  string `bigquery:"run_id" json:"run_id"` // REQUIRED
	Source string `bigquery:"source" json:"source"` // NULLABLE

	StartedTS  time.Time              `bigquery:"started_ts" json:"started_ts"`   // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts" json:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status" json:"status"`               // NULLABLE
	ErrorMessage string `bigquery:"error_message" json:"error_message"` // NULLABLE

	OutputObject  string             `bigquery:"output_object" json:"output_object"`   // NULLABLE
	YearsCount    bigquery.NullInt64 `bigquery:"years_count" json:"years_count"`       // NULLABLE
	WarningsCount bigquery.NullInt64 `bigquery:"warnings_count" json:"warnings_count"` // NULLABLE
}

// RunSummary is what a successful conversion reports back to the audit log.
type RunSummary struct {
	OutputObject string
	Years        int
	Warnings     int
}
