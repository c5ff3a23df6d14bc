package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes the current state of the metrics registry to path in
// the Prometheus text exposition format, for pickup by the node exporter
// textfile collector. An empty path is a no-op.
func WriteTextfile(path string) error {
	return writeTextfile(path, customRegistry)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	// WriteToTextfile writes to a temp file and renames it into place.
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	return nil
}
