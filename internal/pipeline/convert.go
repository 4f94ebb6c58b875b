// Package pipeline runs a ledger conversion as a sequence of steps: load the
// two ledgers, clean them, build the project registry, aggregate every year,
// assemble the document, write the artifact and optionally publish it.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/ledgerconv/internal/config"
	"github.com/dvloznov/ledgerconv/internal/gcs"
	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/metrics"
	"github.com/dvloznov/ledgerconv/internal/report"
	"github.com/dvloznov/ledgerconv/internal/source"
)

// PublishTarget is the object an artifact is uploaded to.
type PublishTarget struct {
	Bucket string
	Object string
}

// URI returns the target as a gs:// URI.
func (t PublishTarget) URI() string {
	return gcs.FormatURI(t.Bucket, t.Object)
}

// Options describe one conversion.
type Options struct {
	Input      source.Options
	OutputPath string
	Artifact   report.ArtifactOptions
	// Publish is nil when the artifact stays local.
	Publish *PublishTarget
}

// Describe names the input for logs and the audit table.
func (o Options) Describe() string {
	if o.Input.WorkbookPath != "" {
		return o.Input.WorkbookPath
	}
	if o.Input.Dir != "" {
		return o.Input.Dir
	}
	return "."
}

// OptionsFromConfig builds conversion options from the loaded configuration.
// Publishing is left off; callers opt in with WithPublish.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Input: source.Options{
			WorkbookPath: cfg.Input.Workbook,
			Dir:          cfg.Input.Dir,
		},
		OutputPath: cfg.Output.Path,
		Artifact: report.ArtifactOptions{
			Header:     cfg.Output.Header,
			Identifier: cfg.Output.Identifier,
		},
	}
}

// WithPublish returns a copy of o that uploads the artifact to bucket/object.
// An empty bucket leaves publishing off.
func (o Options) WithPublish(bucket, object string) Options {
	if bucket == "" {
		o.Publish = nil
		return o
	}
	o.Publish = &PublishTarget{Bucket: bucket, Object: object}
	return o
}

// Result summarizes a finished conversion.
type Result struct {
	RunID        string
	Years        []int
	OutputPath   string
	BytesWritten int
	Warnings     []ledger.RowCoercionWarning
	PublishedURI string
	Duration     time.Duration
}

// Converter runs conversions. Its collaborators are optional: a nil storage
// service rejects gs:// inputs and publishing, a nil recorder skips the audit
// log and nil metrics record nothing.
type Converter struct {
	storage  gcs.StorageService
	recorder RunRecorder
	metrics  *metrics.Metrics
}

// NewConverter creates a Converter wired to its collaborators.
func NewConverter(storage gcs.StorageService, recorder RunRecorder, m *metrics.Metrics) *Converter {
	return &Converter{storage: storage, recorder: recorder, metrics: m}
}

// NewConversionPipeline creates the standard pipeline for one conversion.
func (c *Converter) NewConversionPipeline() *Pipeline {
	return NewPipeline(
		&StartRunStep{Recorder: c.recorder},
		&FetchInputStep{Storage: c.storage},
		&LoadSourcesStep{},
		&CleanLedgersStep{Metrics: c.metrics},
		&BuildRegistryStep{},
		&AggregateYearsStep{},
		&AssembleDocumentStep{},
		&WriteArtifactStep{},
		&PublishArtifactStep{Storage: c.storage, Metrics: c.metrics},
		&MarkSuccessStep{Recorder: c.recorder},
	)
}

// Convert runs one conversion. On failure the error names the step that
// failed and wraps its cause, so errors.As finds *ledger.MissingInputError
// and *ledger.SerializationError.
func (c *Converter) Convert(ctx context.Context, opts Options) (*Result, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	state := &PipelineState{Options: opts}
	defer state.Cleanup()

	log.Info().Str("input", opts.Describe()).Str("output", opts.OutputPath).Msg("Starting conversion")

	if err := c.NewConversionPipeline().Execute(ctx, state); err != nil {
		if c.recorder != nil && state.RunID != "" {
			c.recorder.MarkRunFailed(ctx, state.RunID, err)
		}
		c.metrics.ObserveConversion(metrics.StatusFailed, time.Since(started))
		log.Error().Err(err).Str("run_id", state.RunID).Msg("Conversion failed")
		return nil, err
	}

	elapsed := time.Since(started)
	c.metrics.ObserveConversion(metrics.StatusSuccess, elapsed)

	res := &Result{
		RunID:        state.RunID,
		Years:        state.Document.Years(),
		OutputPath:   opts.OutputPath,
		BytesWritten: state.BytesWritten,
		Warnings:     state.Warnings,
		PublishedURI: state.PublishedURI,
		Duration:     elapsed,
	}
	log.Info().
		Str("run_id", res.RunID).
		Ints("years", res.Years).
		Int("warnings", len(res.Warnings)).
		Dur("elapsed", elapsed).
		Msg("Conversion finished")
	return res, nil
}
