package gcsuploader

import (
	"context"

	"github.com/dvloznov/ledgerconv/internal/gcs"
)

// StorageService is re-exported so callers need only this package.
type StorageService = gcs.StorageService

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// UploadFile delegates to UploadFile.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, bucketName, objectName, filePath)
}

// DownloadFile delegates to DownloadFile.
func (s *GCSStorageService) DownloadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return DownloadFile(ctx, bucketName, objectName, filePath)
}

var _ StorageService = (*GCSStorageService)(nil)
