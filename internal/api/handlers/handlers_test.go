package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infra "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
	"github.com/dvloznov/ledgerconv/internal/jobs"
	"github.com/dvloznov/ledgerconv/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/logger"
	"github.com/dvloznov/ledgerconv/internal/pipeline"
)

type mockConverter struct {
	ConvertFunc func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	calls       []pipeline.Options
}

func (m *mockConverter) Convert(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	m.calls = append(m.calls, opts)
	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, opts)
	}
	return &pipeline.Result{RunID: "run-1"}, nil
}

type failingPublisher struct{}

func (failingPublisher) PublishConvert(ctx context.Context, job *jobs.ConvertJob) error {
	return jobs.ErrQueueClosed
}

func (failingPublisher) Close() error { return nil }

func uploadRequest(t *testing.T, target string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(uploadField, "neko_finance.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "converter alive", rec.Body.String())

	rec = httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestConvert_NoFile(t *testing.T) {
	conv := &mockConverter{}
	h := NewConvertHandler(conv, nil, ConvertSettings{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	rec := httptest.NewRecorder()
	h.Convert(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no file", decode(t, rec)["error"])
	assert.Empty(t, conv.calls)
}

func TestConvert_TooLarge(t *testing.T) {
	conv := &mockConverter{}
	h := NewConvertHandler(conv, nil, ConvertSettings{MaxUploadBytes: 64}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Convert(rec, uploadRequest(t, "/convert", bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, conv.calls)
}

func TestConvert_Success(t *testing.T) {
	var inputPath, workDir string
	conv := &mockConverter{
		ConvertFunc: func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
			inputPath = opts.Input.WorkbookPath
			workDir = opts.Input.Dir

			data, err := os.ReadFile(inputPath)
			require.NoError(t, err)
			assert.Equal(t, "workbook bytes", string(data))

			return &pipeline.Result{
				RunID:        "run-42",
				Years:        []int{2023, 2024},
				PublishedURI: "gs://site-data/data.js",
				Warnings:     []ledger.RowCoercionWarning{{Role: ledger.RoleExpenditure, Column: "Amount"}},
			}, nil
		},
	}
	settings := ConvertSettings{Bucket: "site-data", Object: "data.js"}
	h := NewConvertHandler(conv, nil, settings, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Convert(rec, uploadRequest(t, "/convert", []byte("workbook bytes")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "ok",
		"run_id": "run-42",
		"object": "gs://site-data/data.js",
		"years": [2023, 2024],
		"warnings": 1
	}`, rec.Body.String())

	require.Len(t, conv.calls, 1)
	opts := conv.calls[0]
	require.NotNil(t, opts.Publish)
	assert.Equal(t, "site-data", opts.Publish.Bucket)
	assert.Equal(t, "data.js", opts.Publish.Object)
	assert.Contains(t, opts.OutputPath, workDir)

	_, err := os.Stat(workDir)
	assert.True(t, os.IsNotExist(err), "upload workspace should be removed")
}

func TestConvert_FailureReturnsDiagnostics(t *testing.T) {
	conv := &mockConverter{
		ConvertFunc: func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
			log := logger.FromContext(ctx)
			log.Warn().Str("sheet", "Revenue").Msg("Workbook unreadable")
			return nil, &ledger.MissingInputError{Role: ledger.RoleRevenue, Searched: "workbook input.xlsx"}
		},
	}
	h := NewConvertHandler(conv, nil, ConvertSettings{LogLevel: "info"}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Convert(rec, uploadRequest(t, "/convert", []byte("not a workbook")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decode(t, rec)
	assert.Contains(t, out["error"], "revenue")
	assert.Contains(t, out["diagnostics"], "Workbook unreadable")
	assert.Contains(t, out["diagnostics"], "sheet=Revenue")
}

func TestConvert_NoYearsEncodesEmptyList(t *testing.T) {
	h := NewConvertHandler(&mockConverter{}, nil, ConvertSettings{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Convert(rec, uploadRequest(t, "/convert", []byte("x")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode(t, rec)["years"])
	assert.Equal(t, "", decode(t, rec)["object"])
}

func TestEnqueue(t *testing.T) {
	t.Run("disabled without publisher", func(t *testing.T) {
		h := NewConvertHandler(&mockConverter{}, nil, ConvertSettings{}, zerolog.Nop())
		rec := httptest.NewRecorder()
		h.Enqueue(rec, uploadRequest(t, "/api/conversions", []byte("x")))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("publish failure", func(t *testing.T) {
		h := NewConvertHandler(&mockConverter{}, failingPublisher{}, ConvertSettings{}, zerolog.Nop())
		rec := httptest.NewRecorder()
		h.Enqueue(rec, uploadRequest(t, "/api/conversions", []byte("x")))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("accepted and processed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		conv := &mockConverter{
			ConvertFunc: func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
				log := logger.FromContext(ctx)
				log.Info().Msg("Processing year")
				return &pipeline.Result{RunID: "run-7", Years: []int{2024}, PublishedURI: "gs://b/data.js"}, nil
			},
		}
		store := inmemory.NewStore()
		queue := inmemory.NewQueue(inmemory.Options{}, store)
		h := NewConvertHandler(conv, queue, ConvertSettings{Bucket: "b", Object: "data.js"}, zerolog.Nop())
		require.NoError(t, queue.Start(ctx, h.ProcessJob))

		rec := httptest.NewRecorder()
		h.Enqueue(rec, uploadRequest(t, "/api/conversions", []byte("x")))
		require.Equal(t, http.StatusAccepted, rec.Code)

		out := decode(t, rec)
		jobID, _ := out["job_id"].(string)
		require.NotEmpty(t, jobID)
		assert.Equal(t, string(jobs.JobStatusPending), out["status"])

		var job *jobs.ConvertJob
		require.Eventually(t, func() bool {
			j, err := store.GetJob(context.Background(), jobID)
			if err != nil {
				return false
			}
			job = j
			return j.Status == jobs.JobStatusCompleted
		}, 2*time.Second, 5*time.Millisecond)

		assert.Equal(t, "run-7", job.RunID)
		assert.Equal(t, []int{2024}, job.Years)
		assert.Equal(t, "gs://b/data.js", job.Object)
		assert.Contains(t, job.Diagnostics, "Processing year")
		assert.Contains(t, job.Diagnostics, "correlation_id="+jobID)

		_, err := os.Stat(job.WorkDir)
		assert.True(t, job.WorkDir == "" || os.IsNotExist(err))

		require.NoError(t, queue.Stop(context.Background()))
	})
}

func TestProcessJob(t *testing.T) {
	t.Run("wrong job type", func(t *testing.T) {
		h := NewConvertHandler(&mockConverter{}, nil, ConvertSettings{}, zerolog.Nop())
		err := h.ProcessJob(context.Background(), otherJob{})
		assert.ErrorContains(t, err, "unexpected job type")
	})

	t.Run("keeps workspace while retries remain", func(t *testing.T) {
		dir := t.TempDir()
		conv := &mockConverter{
			ConvertFunc: func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
				return nil, errors.New("transient")
			},
		}
		h := NewConvertHandler(conv, nil, ConvertSettings{}, zerolog.Nop())

		job := &jobs.ConvertJob{JobID: "j1", WorkDir: dir, MaxRetries: 2}
		assert.EqualError(t, h.ProcessJob(context.Background(), job), "transient")
		assert.DirExists(t, dir)

		job.RetryCount = 2
		assert.Error(t, h.ProcessJob(context.Background(), job))
		assert.NoDirExists(t, dir)
	})

	t.Run("discard removes workspace", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "upload")
		require.NoError(t, os.Mkdir(dir, 0o700))
		h := NewConvertHandler(&mockConverter{}, nil, ConvertSettings{}, zerolog.Nop())

		h.DiscardJob(&jobs.ConvertJob{JobID: "j2", WorkDir: dir, Status: jobs.JobStatusFailed})
		assert.NoDirExists(t, dir)
	})
}

type otherJob struct{}

func (otherJob) GetID() string             { return "other" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestJobsHandler(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveJob(ctx, &jobs.ConvertJob{JobID: "a", Status: jobs.JobStatusCompleted, CreatedAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ConvertJob{JobID: "b", Status: jobs.JobStatusFailed, CreatedAt: time.Now()}))

	h := NewJobsHandler(store, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/jobs", h.ListJobs)
	r.Get("/api/jobs/{id}", h.GetJob)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/a", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode(t, rec)["job_id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=failed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["count"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["jobs"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].(map[string]interface{})["job_id"])
}

type mockRunLister struct {
	ListRunsFunc func(ctx context.Context, limit int) ([]*infra.ConversionRunRow, error)
}

func (m *mockRunLister) ListRuns(ctx context.Context, limit int) ([]*infra.ConversionRunRow, error) {
	return m.ListRunsFunc(ctx, limit)
}

func TestRunsHandler(t *testing.T) {
	var gotLimit int
	lister := &mockRunLister{
		ListRunsFunc: func(ctx context.Context, limit int) ([]*infra.ConversionRunRow, error) {
			gotLimit = limit
			return []*infra.ConversionRunRow{{RunID: "r1", Status: infra.RunStatusSuccess}}, nil
		},
	}
	h := NewRunsHandler(lister, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, gotLimit)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = httptest.NewRecorder()
	h.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))
	assert.Equal(t, 5, gotLimit)

	lister.ListRunsFunc = func(ctx context.Context, limit int) ([]*infra.ConversionRunRow, error) {
		return nil, errors.New("bigquery down")
	}
	rec = httptest.NewRecorder()
	h.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
