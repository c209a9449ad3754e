package logger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaultLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	config := &Config{
		LogFilePath:   logPath,
		MaxFileSize:   1024,
		MaxBackups:    3,
		Level:         LevelDebug,
		EnableConsole: false,
	}

	logger, err := NewDefaultLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	// Verify log file (and its directory) was created
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestLogLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	config := &Config{
		LogFilePath: logPath,
		MaxFileSize: 1024 * 1024,
		MaxBackups:  3,
		Level:       LevelDebug,
	}

	logger, err := NewDefaultLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("debug message", String("key", "value"))
	logger.Info("info message", Int("count", 42))
	logger.Warn("warn message", Bool("flag", true))
	logger.Error("error message", errors.New("test error"), Float64("rate", 3.14))

	logger.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	for _, want := range []string{
		"level=DEBUG", "level=INFO", "level=WARN", "level=ERROR",
		`msg="debug message"`, `msg="info message"`, `msg="warn message"`, `msg="error message"`,
		"key=value", "count=42", "flag=true", "rate=3.14",
		`error="test error"`,
		"stack=",
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("log output missing %q:\n%s", want, logContent)
		}
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	logContent := buf.String()

	if strings.Contains(logContent, "level=DEBUG") {
		t.Error("Debug message should be filtered out")
	}
	if strings.Contains(logContent, "level=INFO") {
		t.Error("Info message should be filtered out")
	}
	if !strings.Contains(logContent, "level=WARN") {
		t.Error("Warn message should be present")
	}
	if !strings.Contains(logContent, "level=ERROR") {
		t.Error("Error message should be present")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelDebug)

	logger.Debug("before")
	logger.SetLevel(LevelError)
	logger.Debug("after")
	logger.Info("after info")

	logContent := buf.String()
	if !strings.Contains(logContent, "msg=before") {
		t.Error("message before SetLevel should be logged")
	}
	if strings.Contains(logContent, "after") {
		t.Error("messages below the new level should be filtered out")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestLogRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	config := &Config{
		LogFilePath: logPath,
		MaxFileSize: 512,
		MaxBackups:  2,
		Level:       LevelDebug,
	}

	logger, err := NewDefaultLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	for i := 0; i < 50; i++ {
		logger.Info("filling the log file to force rotation", Int("iteration", i))
	}
	logger.Close()

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("Backup file .1 should exist after rotation")
	}
	if _, err := os.Stat(logPath + ".3"); err == nil {
		t.Error("Backup beyond MaxBackups should have been removed")
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Current log file missing: %v", err)
	}
	if info.Size() > config.MaxFileSize {
		t.Errorf("Current log file size %d exceeds max %d", info.Size(), config.MaxFileSize)
	}
}

func TestGlobalLogger(t *testing.T) {
	defer Close()

	// The zero global logger discards everything.
	Info("discarded")

	logPath := filepath.Join(t.TempDir(), "global.log")
	if err := Init(&Config{LogFilePath: logPath, MaxFileSize: 1 << 20, MaxBackups: 1, Level: LevelInfo}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Debug("global debug")
	Info("global info", String("component", "test"))
	Warn("global warn")
	Error("global error", fmt.Errorf("boom"))

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	if strings.Contains(logContent, "global debug") {
		t.Error("debug should be filtered at info level")
	}
	for _, want := range []string{"global info", "component=test", "global warn", "boom"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("log output missing %q", want)
		}
	}

	if _, ok := GetLogger().(*noopLogger); !ok {
		t.Error("GetLogger should fall back to noopLogger after Close")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	defer SetGlobalLogger(nil)

	var buf bytes.Buffer
	SetGlobalLogger(NewWriterLogger(&buf, LevelInfo))
	Info("routed", Any("items", []string{"a", "b"}))

	if !strings.Contains(buf.String(), "msg=routed") {
		t.Errorf("message not routed to the custom logger: %s", buf.String())
	}
}

func TestFieldHelpers(t *testing.T) {
	if f := Err(nil); f.Key != "error" || f.Value != nil {
		t.Errorf("Err(nil) = %+v", f)
	}
	if f := Err(errors.New("x")); f.Value != "x" {
		t.Errorf("Err value = %v, want x", f.Value)
	}
	if f := Int64("n", 7); f.Value != int64(7) {
		t.Errorf("Int64 value = %v", f.Value)
	}
}
