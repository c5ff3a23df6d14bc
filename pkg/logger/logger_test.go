package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Configure(&buf, FormatJSON); err != nil {
		t.Fatalf("failed to configure logger: %v", err)
	}
	SetLevel(slog.LevelInfo)

	Get().Info(context.Background(), "match merged", String("match", "3895302"), Int("events", 3412))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "match merged" {
		t.Errorf("msg = %v, want %q", entry["msg"], "match merged")
	}
	if entry["match"] != "3895302" {
		t.Errorf("match = %v, want %q", entry["match"], "3895302")
	}
	src, _ := entry["source"].(string)
	if !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %q, want caller file logger_test.go", src)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := Configure(&buf, FormatText); err != nil {
		t.Fatalf("failed to configure logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	defer SetLevel(slog.LevelInfo)

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown", Error(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "boom") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Configure(&buf, FormatText); err != nil {
		t.Fatalf("failed to configure logger: %v", err)
	}
	SetLevel(slog.LevelInfo)

	Named("merge").With(String("run", "r1")).Info(context.Background(), "test message", String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, "run=r1") {
		t.Errorf("With field missing: %q", out)
	}
	if !strings.Contains(out, "merge.k=v") {
		t.Errorf("named group missing: %q", out)
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := Configure(nil, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
