package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://city-data/2024/ledger.xlsx", wantBucket: "city-data", wantObject: "2024/ledger.xlsx"},
		{uri: "gs://b/o", wantBucket: "b", wantObject: "o"},
		{uri: "gs://bucket-only", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "gs:///object", wantErr: true},
		{uri: "/local/path.xlsx", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}

func TestFormatURI_RoundTrip(t *testing.T) {
	uri := FormatURI("city-data", "js/data.js")
	assert.Equal(t, "gs://city-data/js/data.js", uri)
	assert.True(t, IsURI(uri))

	bucket, object, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "city-data", bucket)
	assert.Equal(t, "js/data.js", object)
}

func TestFilenameFromURI(t *testing.T) {
	assert.Equal(t, "budget.xlsx", FilenameFromURI("gs://bucket/folder/budget.xlsx"))
	assert.Equal(t, "bucket", FilenameFromURI("gs://bucket"))
}
