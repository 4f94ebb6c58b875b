package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerconv/internal/api/middleware"
	"github.com/dvloznov/ledgerconv/internal/jobs"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/pipeline"
	"github.com/dvloznov/ledgerconv/internal/source"
)

// uploadField is the multipart field carrying the ledger file.
const uploadField = "file"

const (
	uploadedWorkbook = "input.xlsx"
	artifactName     = "data.js"
)

// Converter runs one conversion.
type Converter interface {
	Convert(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// ConvertSettings are the per-service parts of every conversion.
type ConvertSettings struct {
	// Base carries artifact options; its input and output paths are
	// replaced per request.
	Base           pipeline.Options
	Bucket         string
	Object         string
	MaxUploadBytes int64
	LogLevel       string
}

// ConvertHandler handles conversion endpoints.
type ConvertHandler struct {
	converter Converter
	publisher jobs.Publisher
	settings  ConvertSettings
	log       zerolog.Logger
}

// NewConvertHandler creates a new convert handler. publisher may be nil, in
// which case asynchronous conversions are rejected.
func NewConvertHandler(converter Converter, publisher jobs.Publisher, settings ConvertSettings, log zerolog.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		publisher: publisher,
		settings:  settings,
		log:       log,
	}
}

// Convert handles POST /convert
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	work, status, err := h.receiveUpload(w, r)
	if err != nil {
		middleware.WriteError(w, status, err.Error())
		return
	}
	defer work.remove()

	ctx := r.Context()
	res, diagnostics, err := h.run(ctx, work, middleware.GetRequestID(ctx))
	if err != nil {
		h.log.Error().Err(err).Str("input", work.inputName).Msg("Conversion failed")
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":       err.Error(),
			"diagnostics": diagnostics,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"run_id":   res.RunID,
		"object":   res.PublishedURI,
		"years":    nonNilYears(res.Years),
		"warnings": len(res.Warnings),
	})
}

// Enqueue handles POST /api/conversions
func (h *ConvertHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Asynchronous conversions are disabled")
		return
	}

	work, status, err := h.receiveUpload(w, r)
	if err != nil {
		middleware.WriteError(w, status, err.Error())
		return
	}

	job := &jobs.ConvertJob{
		InputName: work.inputName,
		WorkDir:   work.dir,
		InputPath: work.inputPath,
	}
	// The queue owns job once published; only JobID is read afterwards.
	if err := h.publisher.PublishConvert(r.Context(), job); err != nil {
		work.remove()
		h.log.Error().Err(err).Msg("Failed to enqueue conversion")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue conversion")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("input", work.inputName).
		Msg("Conversion enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(jobs.JobStatusPending),
	})
}

// ProcessJob is the queue handler for conversion jobs.
func (h *ConvertHandler) ProcessJob(ctx context.Context, job jobs.Job) error {
	cj, ok := job.(*jobs.ConvertJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	work := &workspace{dir: cj.WorkDir, inputPath: cj.InputPath, inputName: cj.InputName}
	res, diagnostics, err := h.run(ctx, work, cj.JobID)
	cj.Diagnostics = diagnostics

	if err != nil {
		if cj.RetryCount >= cj.MaxRetries {
			work.remove()
		}
		return err
	}

	cj.RunID = res.RunID
	cj.Years = res.Years
	cj.Object = res.PublishedURI
	work.remove()
	return nil
}

// DiscardJob removes the workspace of a job the queue gave up on.
func (h *ConvertHandler) DiscardJob(job *jobs.ConvertJob) {
	h.log.Warn().Str("job_id", job.JobID).Str("error", job.Error).Msg("Discarding conversion job")
	(&workspace{dir: job.WorkDir}).remove()
}

// run converts the uploaded input, capturing the run's log as diagnostics.
func (h *ConvertHandler) run(ctx context.Context, work *workspace, correlationID string) (*pipeline.Result, string, error) {
	var captured bytes.Buffer
	runLog := logger.WithFields(logger.NewCapturing(h.settings.LogLevel, &captured), map[string]interface{}{
		"correlation_id": correlationID,
		"input":          work.inputName,
	})
	ctx = logger.WithContext(ctx, runLog)

	opts := h.settings.Base
	opts.Input = work.sourceOptions()
	opts.OutputPath = filepath.Join(work.dir, artifactName)
	opts = opts.WithPublish(h.settings.Bucket, h.settings.Object)

	res, err := h.converter.Convert(ctx, opts)
	return res, captured.String(), err
}

// workspace is a private directory holding one uploaded input.
type workspace struct {
	dir       string
	inputPath string
	inputName string
}

// sourceOptions points the loader at the uploaded workbook. The workspace
// holds nothing else, so a workbook that cannot be read fails the run.
func (w *workspace) sourceOptions() source.Options {
	return source.Options{WorkbookPath: w.inputPath, Dir: w.dir}
}

func (w *workspace) remove() {
	if w.dir != "" {
		_ = os.RemoveAll(w.dir)
	}
}

// receiveUpload stores the multipart file in a fresh workspace. On error it
// returns the HTTP status to answer with.
func (h *ConvertHandler) receiveUpload(w http.ResponseWriter, r *http.Request) (*workspace, int, error) {
	if h.settings.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.settings.MaxUploadBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("file too large")
		}
		return nil, http.StatusBadRequest, errors.New("no file")
	}
	defer file.Close()

	dir, err := os.MkdirTemp("", "ledgerconv-upload-")
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create upload workspace")
		return nil, http.StatusInternalServerError, errors.New("failed to store upload")
	}
	work := &workspace{dir: dir, inputName: header.Filename}
	work.inputPath = filepath.Join(dir, uploadedWorkbook)

	if err := saveFile(file, work.inputPath); err != nil {
		work.remove()
		h.log.Error().Err(err).Msg("Failed to store upload")
		return nil, http.StatusInternalServerError, errors.New("failed to store upload")
	}
	return work, 0, nil
}

func saveFile(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nonNilYears(years []int) []int {
	if years == nil {
		return []int{}
	}
	return years
}
