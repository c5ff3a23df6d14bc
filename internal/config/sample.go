package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Values returns the configuration as nested config keys.
func (c *Config) Values() map[string]any {
	return map[string]any{
		"log_level":        c.LogLevel,
		"log_format":       c.LogFormat,
		"workers":          c.Workers,
		"queue_size":       c.QueueSize,
		"duplicate_policy": c.DuplicatePolicy,
		"ledger_path":      c.LedgerPath,
		"metrics_textfile": c.MetricsTextfile,
		"metrics_labels":   labelValues(c.MetricsLabels),
		"metrics_buckets":  bucketValues(c.MetricsBuckets),
		"paths": map[string]any{
			"working_dir": c.Paths.WorkingDir,
			"three_sixty": c.Paths.ThreeSixty,
			"events":      c.Paths.Events,
			"merged":      c.Paths.Merged,
			"labeled":     c.Paths.Labeled,
			"labeled_360": c.Paths.Labeled360,
			"export":      c.Paths.Export,
		},
	}
}

// WriteSample writes a TOML file holding the defaults. It refuses to replace
// an existing file unless overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check config path: %w", err)
		}
	}
	cfg := New()
	cfg.LedgerPath = filepath.Join(cfg.Paths.WorkingDir, "ledger.db")
	cfg.Resolve()

	data, err := tomlParser{}.Marshal(cfg.Values())
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func labelValues(labels map[string]string) map[string]any {
	out := make(map[string]any, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func bucketValues(buckets []float64) []any {
	out := make([]any, len(buckets))
	for i, b := range buckets {
		out[i] = b
	}
	return out
}
