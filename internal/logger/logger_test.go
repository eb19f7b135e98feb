package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With("target", "t1")

	l.Err(errors.New("boom"), "fetch failed", "url", "https://example.org")

	line := buf.String()
	if got := gjson.Get(line, "message").String(); got != "fetch failed" {
		t.Fatalf("message = %q, want fetch failed", got)
	}
	if got := gjson.Get(line, "target").String(); got != "t1" {
		t.Fatalf("target = %q, want t1", got)
	}
	if got := gjson.Get(line, "url").String(); got != "https://example.org" {
		t.Fatalf("url = %q", got)
	}
	if got := gjson.Get(line, "error").String(); got != "boom" {
		t.Fatalf("error = %q, want boom", got)
	}
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("below-level entries were written: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn entry missing: %s", buf.String())
	}
}

func TestNewRejectsUnknownWriter(t *testing.T) {
	if _, err := New(Options{Level: "info", Writer: []string{"syslog"}}); err == nil {
		t.Fatal("expected error for unknown writer")
	}
	if _, err := New(Options{Level: "info", Writer: []string{"file"}}); err == nil {
		t.Fatal("expected error for file writer without path")
	}
	if _, err := New(Options{Level: "nope"}); err == nil {
		t.Fatal("expected error for bad level")
	}
}

func TestNewFileWriter(t *testing.T) {
	l, err := New(Options{Level: "debug", Writer: []string{"file"}, File: t.TempDir() + "/app.log", MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("ok", "k", 1)
}
