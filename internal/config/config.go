// Package config defines pipeline configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional file, then EPVPREP_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"path/filepath"
)

// Default stage directory names under WorkingDir.
const (
	DirThreeSixty = "three-sixty"
	DirEvents     = "events"
	DirMerged     = "merged"
	DirLabeled    = "labeled"
	DirLabeled360 = "labeled_360"
	DirExport     = "export"
)

// Duplicate join key policies.
const (
	PolicyFirst  = "first"
	PolicyLast   = "last"
	PolicyReject = "reject"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Workers sets how many matches are processed at once.
	Workers int `koanf:"workers" validate:"gte=1"`

	// QueueSize bounds the pending match job queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// DuplicatePolicy decides which frame wins when two share an event_uuid.
	DuplicatePolicy string `koanf:"duplicate_policy" validate:"oneof=first last reject"`

	// Paths holds the stage input and output directories.
	Paths Paths `koanf:"paths"`

	// LedgerPath is the SQLite run ledger. Empty disables the ledger.
	LedgerPath string `koanf:"ledger_path"`

	// MetricsTextfile is where metrics are flushed after each run. Empty
	// disables the flush.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// MetricsLabels are constant labels put on every exported metric, so
	// textfiles from several hosts or datasets stay apart.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsBuckets overrides the match duration histogram buckets, in
	// milliseconds. They must be positive and increasing.
	MetricsBuckets []float64 `koanf:"metrics_buckets" validate:"omitempty,dive,gt=0"`
}

// Paths lists stage directories. Empty entries resolve under WorkingDir.
type Paths struct {
	WorkingDir string `koanf:"working_dir" validate:"required"`
	ThreeSixty string `koanf:"three_sixty" validate:"required"`
	Events     string `koanf:"events" validate:"required"`
	Merged     string `koanf:"merged" validate:"required"`
	Labeled    string `koanf:"labeled" validate:"required"`
	Labeled360 string `koanf:"labeled_360" validate:"required"`
	Export     string `koanf:"export" validate:"required"`
}

// New creates a Config with defaults. Stage directories stay empty until
// Resolve fills them from WorkingDir.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Workers:         1,
		QueueSize:       64,
		DuplicatePolicy: PolicyFirst,
		Paths: Paths{
			WorkingDir: "data",
		},
	}
}

// Resolve fills empty stage directories from WorkingDir.
func (c *Config) Resolve() {
	p := &c.Paths
	fill := func(dst *string, name string) {
		if *dst == "" && p.WorkingDir != "" {
			*dst = filepath.Join(p.WorkingDir, name)
		}
	}
	fill(&p.ThreeSixty, DirThreeSixty)
	fill(&p.Events, DirEvents)
	fill(&p.Merged, DirMerged)
	fill(&p.Labeled, DirLabeled)
	fill(&p.Labeled360, DirLabeled360)
	fill(&p.Export, DirExport)
}
