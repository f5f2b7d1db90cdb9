package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRollingWriterSwitchesDaysAndPrunes(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)
	clock := func() time.Time { return now }

	stale := filepath.Join(dir, "app-2026-02-01.log")
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newRollingWriter(filepath.Join(dir, "app.log"), 3, clock)
	if err != nil {
		t.Fatalf("newRollingWriter failed: %v", err)
	}
	defer w.Close()
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale log should be pruned, stat err=%v", err)
	}
	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	firstPath := w.Path()

	now = now.Add(2 * time.Minute)
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}
	if w.Path() == firstPath {
		t.Fatalf("writer did not roll over at midnight")
	}
	if filepath.Base(w.Path()) != "app-2026-03-02.log" {
		t.Fatalf("unexpected rolled path: %s", w.Path())
	}
	data, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\n" {
		t.Fatalf("first file content mismatch: %q", data)
	}
}

func TestSetupWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "correctme.log")
	l := Setup(Options{Path: path, Level: "debug"})
	defer l.Close()

	l.Debug("hello", "run_id", "abc")
	data, err := os.ReadFile(l.Path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if rec["msg"] != "hello" || rec["run_id"] != "abc" || rec["level"] != "DEBUG" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestSetupHonorsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.log")
	t.Setenv(EnvLogFile, path)
	t.Setenv(EnvLogLevel, "error")
	l := Setup(Options{})
	defer l.Close()

	if !strings.HasPrefix(filepath.Base(l.Path), "env-") {
		t.Fatalf("log path ignores %s: %s", EnvLogFile, l.Path)
	}
	if l.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("warn should be disabled at error level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
