package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info(context.Background(), "allocation committed",
		Int("request_id", 7),
		String("resource", "Water"),
		Bool("partial", false),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "allocation committed" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["request_id"] != float64(7) {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
	if entry["resource"] != "Water" {
		t.Fatalf("resource = %v", entry["resource"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Debug(context.Background(), "debug message")
	log.Info(context.Background(), "info message")
	log.Warn(context.Background(), "warn message")
	log.Error(context.Background(), "error message", Err(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Fatalf("levels below warn must be filtered: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Fatalf("warn and error must pass: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("error field missing: %q", out)
	}
}

func TestWithAttachesPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf}).With(Int("day", 3))

	log.Info(context.Background(), "end of day")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["day"] != float64(3) {
		t.Fatalf("day = %v", entry["day"])
	}
}

func TestNoopLoggerDropsEverything(t *testing.T) {
	log := Noop().With(String("k", "v"))
	// Must not panic or write anywhere.
	log.Debug(context.Background(), "a")
	log.Info(context.Background(), "b")
	log.Warn(context.Background(), "c")
	log.Error(context.Background(), "d", Err(errors.New("x")))
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "garbage", Format: "text", Output: &buf})

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unknown level should default to info: %q", out)
	}
}
