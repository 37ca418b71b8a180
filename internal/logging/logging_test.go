package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("scenario", "BASELINE")).Info(context.Background(), "scenario run complete",
		Int("years", 21), Float("share", 0.25))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "scenario run complete" || rec["scenario"] != "BASELINE" || rec["years"] != float64(21) {
		t.Fatalf("log record = %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", Err(nil))

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q, want only the warning", out)
	}
}

func TestRunIDHelpers(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	if id == "" || RunIDFromContext(ctx) != id {
		t.Fatalf("EnsureRunID() id = %q, ctx id = %q", id, RunIDFromContext(ctx))
	}
	if _, again := EnsureRunID(ctx); again != id {
		t.Fatalf("EnsureRunID() replaced existing id %q with %q", id, again)
	}

	ctx = ContextWithRunID(context.Background(), "req-1")
	ctx, _ = WithRunLogger(ctx, nil)
	if got := RunIDFromContext(ctx); got != "req-1" {
		t.Fatalf("WithRunLogger() run id = %q, want req-1", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	fallback := Noop()
	if got := LoggerFromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("LoggerFromContext() without logger should return fallback")
	}
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	ctx := ContextWithLogger(context.Background(), l)
	LoggerFromContext(ctx, fallback).Info(ctx, "from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("context logger not used: %q", buf.String())
	}
}
