package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func newBufferLogger(buf *bytes.Buffer, format string, level slog.Level) *Logger {
	return New(Config{
		Level:     level,
		Component: ComponentApp,
		Handler:   NewHandler(buf, level, format),
	})
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "json", slog.LevelInfo)
	logger.Info("hello", FieldEntryID, "id-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec[FieldComponent] != ComponentApp {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldEntryID] != "id-1" {
		t.Errorf("entry_id = %v", rec[FieldEntryID])
	}
}

func TestNewHandlerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "text", slog.LevelWarn)
	logger.Info("quiet")
	logger.Debug("quieter")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "msg=loud") {
		t.Errorf("warn line missing: %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "text", slog.LevelInfo).WithComponent(ComponentStore)
	if logger.Component() != ComponentStore {
		t.Errorf("Component() = %q", logger.Component())
	}
	logger.Info("loaded")
	if !strings.Contains(buf.String(), "component=store") {
		t.Errorf("component missing: %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("FromContext without logger = %+v", got)
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "text", slog.LevelInfo)
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
	if got := FromContext(ctx); got != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, "text", slog.LevelInfo))
	ctx := context.Background()

	r := httptest.NewRequest("GET", "/api/entries?type=income", nil)
	sl.LogHTTPEnd(ctx, r, 503, 12, "10.0.0.1")
	out := buf.String()
	for _, want := range []string{"level=ERROR", "status_code=503", "client_ip=10.0.0.1", "success=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("LogHTTPEnd output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	sl.LogEntryAdded(ctx, "id-1", "expense", "Lunch", 45000, "Food & Dining", 3)
	out = buf.String()
	for _, want := range []string{"entry_id=id-1", "amount_cents=45000", "revision=3", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("LogEntryAdded output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	sl.LogError(ctx, "Failed to persist entries", errors.New("disk full"), ComponentStore, OpPersist,
		NewFields().WithStorageKey("expenses"))
	out = buf.String()
	for _, want := range []string{"level=ERROR", `error="disk full"`, "storage_key=expenses", "operation=persist"} {
		if !strings.Contains(out, want) {
			t.Errorf("LogError output missing %q: %q", want, out)
		}
	}
}
