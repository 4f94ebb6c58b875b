package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dvloznov/ledgerconv/internal/gcs"
	infra "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/metrics"
	"github.com/dvloznov/ledgerconv/internal/report"
	"github.com/dvloznov/ledgerconv/internal/rollup"
	"github.com/dvloznov/ledgerconv/internal/source"
)

// Step 1: StartRunStep opens an audit record, or just assigns a run id when
// no recorder is configured.
type StartRunStep struct {
	Recorder RunRecorder
}

func (s *StartRunStep) Name() string { return "start run" }

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Recorder == nil {
		state.RunID = uuid.NewString()
		return nil
	}
	runID, err := s.Recorder.StartRun(ctx, state.Options.Describe())
	if err != nil {
		return err
	}
	state.RunID = runID
	return nil
}

// Step 2: FetchInputStep downloads a gs:// workbook into a temporary file.
type FetchInputStep struct {
	Storage gcs.StorageService
}

func (s *FetchInputStep) Name() string { return "fetch input" }

func (s *FetchInputStep) Execute(ctx context.Context, state *PipelineState) error {
	uri := state.Options.Input.WorkbookPath
	if !gcs.IsURI(uri) {
		return nil
	}
	if s.Storage == nil {
		return fmt.Errorf("input %s needs object storage, none configured", uri)
	}
	bucket, object, err := gcs.ParseURI(uri)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "ledgerconv-input-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	state.onCleanup(func() { _ = os.RemoveAll(dir) })

	local := filepath.Join(dir, gcs.FilenameFromURI(uri))
	if err := s.Storage.DownloadFile(ctx, bucket, object, local); err != nil {
		return fmt.Errorf("download %s: %w", uri, err)
	}

	log := logger.FromContext(ctx)

	log.Info().Str("uri", uri).Str("path", local).Msg("Downloaded input workbook")
	state.Options.Input.WorkbookPath = local
	return nil
}

// Step 3: LoadSourcesStep locates and reads both ledgers.
type LoadSourcesStep struct{}

func (s *LoadSourcesStep) Name() string { return "load sources" }

func (s *LoadSourcesStep) Execute(ctx context.Context, state *PipelineState) error {
	src, err := source.Load(ctx, state.Options.Input)
	if err != nil {
		return err
	}
	if err := src.Require(); err != nil {
		return err
	}
	state.Sources = src
	return nil
}

// Step 4: CleanLedgersStep normalizes both raw tables.
type CleanLedgersStep struct {
	Metrics *metrics.Metrics
}

func (s *CleanLedgersStep) Name() string { return "clean ledgers" }

func (s *CleanLedgersStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	var warnings []ledger.RowCoercionWarning
	for _, role := range ledger.Roles {
		cleaned, w := ledger.Clean(state.Sources.Get(role))
		cleaned.Role = role
		switch role {
		case ledger.RoleExpenditure:
			state.Expenditure = cleaned
		case ledger.RoleRevenue:
			state.Revenue = cleaned
		}
		warnings = append(warnings, w...)
	}

	for _, w := range warnings {
		log.Warn().
			Str("role", string(w.Role)).
			Int("row", w.Row).
			Str("column", w.Column).
			Str("value", w.Value).
			Bool("dropped", w.Dropped).
			Msg("Coerced ledger cell")
		s.Metrics.AddWarning(string(w.Role), w.Column)
	}
	state.Warnings = warnings
	return nil
}

// Step 5: BuildRegistryStep folds both ledgers into the project registry.
type BuildRegistryStep struct{}

func (s *BuildRegistryStep) Name() string { return "build registry" }

func (s *BuildRegistryStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Registry = ledger.BuildRegistry(state.Expenditure, state.Revenue)
	log := logger.FromContext(ctx)
	log.Debug().Int("projects", state.Registry.Len()).Msg("Built project registry")
	return nil
}

// Step 6: AggregateYearsStep computes the rollups for every year, ascending.
type AggregateYearsStep struct{}

func (s *AggregateYearsStep) Name() string { return "aggregate years" }

func (s *AggregateYearsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	years := rollup.Years(state.Expenditure, state.Revenue)
	state.YearResults = make([]rollup.YearResult, 0, len(years))
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := rollup.AggregateYear(year, state.Expenditure, state.Revenue, state.Registry)
		log.Info().
			Int("year", year).
			Int("projects", len(res.Projects)).
			Int64("net_assets", res.Accounts.NetAssets()).
			Msg("Processing year")
		state.YearResults = append(state.YearResults, res)
	}
	return nil
}

// Step 7: AssembleDocumentStep builds the keyed output document.
type AssembleDocumentStep struct{}

func (s *AssembleDocumentStep) Name() string { return "assemble document" }

func (s *AssembleDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	doc := report.NewDocument()
	for _, res := range state.YearResults {
		yd := report.BuildYear(res)
		log := logger.FromContext(ctx)
		log.Debug().Int("year", yd.Year).Int("groups", len(yd.Distributions)).Msg("Assembled year document")
		doc.Put(yd)
	}
	state.Document = doc
	return nil
}

// Step 8: WriteArtifactStep writes the JavaScript artifact atomically.
type WriteArtifactStep struct{}

func (s *WriteArtifactStep) Name() string { return "write artifact" }

func (s *WriteArtifactStep) Execute(ctx context.Context, state *PipelineState) error {
	n, err := report.WriteArtifact(state.Options.OutputPath, state.Document, state.Options.Artifact)
	if err != nil {
		return err
	}
	state.BytesWritten = n
	log := logger.FromContext(ctx)
	log.Info().
		Str("path", state.Options.OutputPath).
		Int("bytes", n).
		Int("years", state.Document.Len()).
		Msg("Wrote artifact")
	return nil
}

// Step 9: PublishArtifactStep uploads the artifact when a target is set.
type PublishArtifactStep struct {
	Storage gcs.StorageService
	Metrics *metrics.Metrics
}

func (s *PublishArtifactStep) Name() string { return "publish artifact" }

func (s *PublishArtifactStep) Execute(ctx context.Context, state *PipelineState) error {
	target := state.Options.Publish
	if target == nil {
		return nil
	}
	if s.Storage == nil {
		return fmt.Errorf("publish to %s: no object storage configured", target.URI())
	}
	if err := s.Storage.UploadFile(ctx, target.Bucket, target.Object, state.Options.OutputPath); err != nil {
		return fmt.Errorf("publish to %s: %w", target.URI(), err)
	}
	state.PublishedURI = target.URI()
	s.Metrics.IncPublished()
	log := logger.FromContext(ctx)
	log.Info().Str("uri", state.PublishedURI).Msg("Published artifact")
	return nil
}

// Step 10: MarkSuccessStep closes the audit record as SUCCESS.
type MarkSuccessStep struct {
	Recorder RunRecorder
}

func (s *MarkSuccessStep) Name() string { return "mark success" }

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Recorder == nil {
		return nil
	}
	return s.Recorder.MarkRunSucceeded(ctx, state.RunID, infra.RunSummary{
		OutputObject: state.PublishedURI,
		Years:        state.Document.Len(),
		Warnings:     len(state.Warnings),
	})
}
