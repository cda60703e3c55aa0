package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureLog redirects log output for the duration of the test
func captureLog(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColors(false)
	prev := currentLogLevel
	SetLogLevel(level)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLogLevel(prev)
	})
	return &buf
}

func TestLogLevelFiltering(t *testing.T) {
	buf := captureLog(t, LevelWarn)

	DebugLog("debug %d", 1)
	InfoLog("info %d", 2)
	WarnLog("warn %d", 3)
	ErrorLog("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below warn were written: %q", out)
	}
	if !strings.Contains(out, "[WARN]  warn 3") || !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("expected warn and error lines: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("colors written with colors disabled: %q", out)
	}
}

func TestSetQuietAndVerbose(t *testing.T) {
	captureLog(t, LevelInfo)

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("expected quiet after SetQuiet(true)")
	}
	SetVerbose(true)
	if IsQuiet() || currentLogLevel != LevelDebug {
		t.Errorf("expected debug level after SetVerbose(true), got %d", currentLogLevel)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestEnableLogFile(t *testing.T) {
	captureLog(t, LevelInfo)
	path := filepath.Join(t.TempDir(), "musicdb.log")

	EnableLogFile(LogFileConfig{Path: path})
	InfoLog("written to %s", "file")
	if err := CloseLogFile(); err != nil {
		t.Fatalf("CloseLogFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(content), "[INFO]  written to file") {
		t.Errorf("unexpected log file content: %q", content)
	}

	if err := CloseLogFile(); err != nil {
		t.Errorf("second CloseLogFile returned %v", err)
	}
}
