package pipeline_test

import (
	"context"
	"sync"

	infra "github.com/dvloznov/ledgerconv/internal/infra/bigquery"
)

// MockStorageService is a mock implementation of gcs.StorageService for testing.
type MockStorageService struct {
	UploadFileFunc   func(ctx context.Context, bucketName, objectName, filePath string) error
	DownloadFileFunc func(ctx context.Context, bucketName, objectName, filePath string) error
}

func (m *MockStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, bucketName, objectName, filePath)
	}
	return nil
}

func (m *MockStorageService) DownloadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	if m.DownloadFileFunc != nil {
		return m.DownloadFileFunc(ctx, bucketName, objectName, filePath)
	}
	return nil
}

// MockRunRecorder records the calls made against the audit log.
type MockRunRecorder struct {
	StartRunFunc         func(ctx context.Context, source string) (string, error)
	MarkRunSucceededFunc func(ctx context.Context, runID string, summary infra.RunSummary) error

	mu        sync.Mutex
	failed    map[string]error
	succeeded map[string]infra.RunSummary
}

func (m *MockRunRecorder) StartRun(ctx context.Context, source string) (string, error) {
	if m.StartRunFunc != nil {
		return m.StartRunFunc(ctx, source)
	}
	return "run-1", nil
}

func (m *MockRunRecorder) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed == nil {
		m.failed = make(map[string]error)
	}
	m.failed[runID] = runErr
}

func (m *MockRunRecorder) MarkRunSucceeded(ctx context.Context, runID string, summary infra.RunSummary) error {
	m.mu.Lock()
	if m.succeeded == nil {
		m.succeeded = make(map[string]infra.RunSummary)
	}
	m.succeeded[runID] = summary
	m.mu.Unlock()
	if m.MarkRunSucceededFunc != nil {
		return m.MarkRunSucceededFunc(ctx, runID, summary)
	}
	return nil
}
