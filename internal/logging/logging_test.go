package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger == nil {
		t.Fatalf("expected logger instance")
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be suppressed without verbose")
	}
	_ = logger.Sync()
}

func TestNewVerbose(t *testing.T) {
	logger, err := New(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("verbose logger should enable debug")
	}
	_ = logger.Sync()
}
