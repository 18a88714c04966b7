package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "overlay.log")

	logger, closer, err := New(path, false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Printf("track changed: %s", "Band - Song")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "track changed: Band - Song") {
		t.Fatalf("log file = %q", data)
	}
}

func TestNewWithoutPath(t *testing.T) {
	logger, closer, err := New("", false)
	if err != nil || logger == nil || closer == nil {
		t.Fatalf("New(\"\") = %v, %v, %v", logger, closer, err)
	}
}

func TestDebugf(t *testing.T) {
	t.Cleanup(func() { SetDebug(false) })

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	SetDebug(false)
	Debugf(logger, "hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("Debugf wrote while disabled: %q", buf.String())
	}

	SetDebug(true)
	Debugf(logger, "shown %d", 2)
	if !strings.Contains(buf.String(), "DEBUG: shown 2") {
		t.Fatalf("Debugf output = %q", buf.String())
	}

	Debugf(nil, "nil logger is fine")
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	logger := log.New(&bytes.Buffer{}, "", 0)
	if OrDiscard(logger) != logger {
		t.Fatal("OrDiscard replaced a non-nil logger")
	}
}
