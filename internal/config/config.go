// Package config loads ledgerconv settings.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file named by LEDGERCONV_CONFIG_FILE, and LEDGERCONV_* environment
// variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for every environment variable read by Load.
const EnvPrefix = "LEDGERCONV"

// ConfigFileEnv names the environment variable holding the YAML file path.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// Config is the complete application configuration. Leaf variables are named
// by splitting the field name, so Output.Path reads LEDGERCONV_OUTPUT_PATH.
// The port also honours a bare PORT variable.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	GCS      GCSConfig      `yaml:"gcs" envconfig:"GCS"`
	BigQuery BigQueryConfig `yaml:"bigquery" envconfig:"BIGQUERY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Queue    QueueConfig    `yaml:"queue" envconfig:"QUEUE"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" split_words:"true"`
}

// InputConfig says where the ledgers are read from.
type InputConfig struct {
	Workbook string `yaml:"workbook" split_words:"true"`
	Dir      string `yaml:"dir" split_words:"true"`
}

// OutputConfig controls the generated artifact.
type OutputConfig struct {
	Path       string `yaml:"path" split_words:"true"`
	Identifier string `yaml:"identifier" split_words:"true"`
	Header     string `yaml:"header" split_words:"true"`
}

// GCSConfig names the publish destination. An empty bucket disables publishing.
type GCSConfig struct {
	Bucket string `yaml:"bucket" split_words:"true"`
	Object string `yaml:"object" split_words:"true"`
}

// BigQueryConfig locates the conversion audit table. Leaving both fields
// empty disables the audit log.
type BigQueryConfig struct {
	Project string `yaml:"project" split_words:"true"`
	Dataset string `yaml:"dataset" split_words:"true"`
}

// Enabled reports whether conversion runs should be recorded.
func (b BigQueryConfig) Enabled() bool {
	return b.Project != "" && b.Dataset != ""
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" split_words:"true"`
}

// QueueConfig sizes the in-memory conversion queue.
type QueueConfig struct {
	Buffer     int `yaml:"buffer" split_words:"true"`
	Workers    int `yaml:"workers" split_words:"true"`
	MaxRetries int `yaml:"max_retries" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Input: InputConfig{
			Workbook: "neko_finance.xlsx",
			Dir:      ".",
		},
		Output: OutputConfig{
			Path:       "js/data/data.js",
			Identifier: "NEKO_CITY_DATA",
			Header:     "/** Auto-generated by ledgerconv */",
		},
		GCS: GCSConfig{
			Object: "data.js",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Queue: QueueConfig{
			Buffer:  100,
			Workers: 1,
		},
	}
}

// Load resolves the configuration from defaults, the optional config file
// and the environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "max upload size must be positive")
	}
	if c.Server.ShutdownTimeout < 0 {
		problems = append(problems, "shutdown timeout cannot be negative")
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		problems = append(problems, "output path cannot be empty")
	}
	if !identifierPattern.MatchString(c.Output.Identifier) {
		problems = append(problems, fmt.Sprintf("invalid export identifier '%s'", c.Output.Identifier))
	}

	if c.GCS.Bucket != "" && c.GCS.Object == "" {
		problems = append(problems, "GCS object name is required when a bucket is set")
	}

	if (c.BigQuery.Project == "") != (c.BigQuery.Dataset == "") {
		problems = append(problems, "BigQuery project and dataset must be set together")
	}

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Logging.Level))
		}
	}

	if c.Queue.Buffer < 1 {
		problems = append(problems, "queue buffer must be at least 1")
	}
	if c.Queue.Workers < 1 {
		problems = append(problems, "queue workers must be at least 1")
	}
	if c.Queue.MaxRetries < 0 {
		problems = append(problems, "queue max retries cannot be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
