package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "NEKO_CITY_DATA", cfg.Output.Identifier)
	assert.Equal(t, 1, cfg.Queue.Workers)
	assert.Equal(t, 0, cfg.Queue.MaxRetries)
	assert.False(t, cfg.BigQuery.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  read_timeout: 5s
output:
  path: out/data.js
  identifier: CITY
gcs:
  bucket: from-file
`), 0o644))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("LEDGERCONV_GCS_BUCKET", "from-env")
	t.Setenv("LEDGERCONV_QUEUE_WORKERS", "3")
	t.Setenv("LEDGERCONV_SERVER_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "out/data.js", cfg.Output.Path)
	assert.Equal(t, "CITY", cfg.Output.Identifier)
	assert.Equal(t, "from-env", cfg.GCS.Bucket)
	assert.Equal(t, "data.js", cfg.GCS.Object)
	assert.Equal(t, 3, cfg.Queue.Workers)
}

func TestLoad_OutputPathIgnoresSystemPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("LEDGERCONV_SERVER_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "js/data/data.js", cfg.Output.Path)
}

func TestLoad_BarePortFallback(t *testing.T) {
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.ErrorContains(t, err, "failed to load config from file")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("LEDGERCONV_QUEUE_BUFFER", "many")
		_, err := Load()
		assert.ErrorContains(t, err, "failed to load config from env")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("LEDGERCONV_SERVER_PORT", "8080")
		t.Setenv("LEDGERCONV_QUEUE_WORKERS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "config validation failed")
	})
}

func TestValidate_CollectsProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   []string{"invalid port 70000"},
		},
		{
			name:   "bad identifier",
			mutate: func(c *Config) { c.Output.Identifier = "1-data" },
			want:   []string{"invalid export identifier"},
		},
		{
			name: "half bigquery config",
			mutate: func(c *Config) {
				c.BigQuery.Project = "proj"
			},
			want: []string{"BigQuery project and dataset"},
		},
		{
			name: "several at once",
			mutate: func(c *Config) {
				c.Output.Path = " "
				c.Logging.Level = "chatty"
				c.Queue.MaxRetries = -1
				c.GCS.Bucket = "b"
				c.GCS.Object = ""
			},
			want: []string{
				"output path cannot be empty",
				"invalid log level 'chatty'",
				"queue max retries cannot be negative",
				"GCS object name is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
