package gcs

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// URIScheme prefixes every object URI.
const URIScheme = "gs://"

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// DownloadFile copies an object into a local file, replacing it.
	DownloadFile(ctx context.Context, bucketName, objectName, filePath string) error
}

// IsURI reports whether s is a gs:// object URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, URIScheme)
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, URIScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FormatURI builds a gs:// URI from a bucket and object name.
func FormatURI(bucket, object string) string {
	return URIScheme + bucket + "/" + object
}

// FilenameFromURI extracts the file name from a storage URI.
// e.g., "gs://bucket/folder/budget.xlsx" → "budget.xlsx"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, URIScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
