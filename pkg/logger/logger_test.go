package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"development", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGet_BeforeInit(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() returned nil before Init")
	}
	// must not panic on a no-op logger
	Get().Info("noop")
	Get().WithContext(context.Background()).Error("noop")
}

func TestInit(t *testing.T) {
	err := Init(&Config{Level: "debug", ServiceName: "queue-service-test", Development: true})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Sync()

	l := Get()
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	child := l.WithContext(context.Background())
	if child != l {
		t.Error("WithContext without a span should return the same logger")
	}
}
