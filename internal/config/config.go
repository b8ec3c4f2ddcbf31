// Package config defines process configuration and the layered loader that
// fills it from defaults, a .env file, YAML and the environment.
package config

import (
	"runtime"
	"slices"

	"github.com/okian/examboard/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds how many runs may wait for a worker.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// WorkerCount sets how many runs execute at once.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// DecodeConcurrency bounds parallel spreadsheet decoding within a run.
	DecodeConcurrency int `koanf:"decode_concurrency" validate:"min=1"`

	// MaxUploadMB caps the multipart body of POST /runs.
	MaxUploadMB int `koanf:"max_upload_mb" validate:"min=1"`

	// Ranked header candidates per logical column.
	TimestampColumns []string `koanf:"timestamp_columns" validate:"min=1"`
	NameColumns      []string `koanf:"name_columns" validate:"min=1"`
	ScoreColumns     []string `koanf:"score_columns" validate:"min=1"`

	MinNameParts int `koanf:"min_name_parts" validate:"min=1"`
	MinExams     int `koanf:"min_exams" validate:"min=1"`

	// TopN and FastestN size the top and fastest export views.
	TopN     int `koanf:"top_n" validate:"min=1"`
	FastestN int `koanf:"fastest_n" validate:"min=1"`

	// ExportDir is where the rank command writes its files by default.
	ExportDir string `koanf:"export_dir"`
}

// New creates a Config populated with defaults.
func New() *Config {
	cols := model.DefaultColumns()
	defaults := model.DefaultSettings()
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         64,
		WorkerCount:       runtime.NumCPU(),
		DecodeConcurrency: runtime.NumCPU(),
		MaxUploadMB:       32,
		TimestampColumns:  cols.Timestamp,
		NameColumns:       cols.Name,
		ScoreColumns:      cols.Score,
		MinNameParts:      defaults.MinNameParts,
		MinExams:          defaults.MinExams,
		TopN:              15,
		FastestN:          10,
		ExportDir:         "exports",
	}
}

// Settings projects the pipeline settings carried by every run.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Columns: model.Columns{
			Timestamp: slices.Clone(c.TimestampColumns),
			Name:      slices.Clone(c.NameColumns),
			Score:     slices.Clone(c.ScoreColumns),
		},
		MinNameParts: c.MinNameParts,
		MinExams:     c.MinExams,
	}
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
