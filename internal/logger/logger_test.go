package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerLogsObjectUnderKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.InfoObj("publication request", "request", map[string]any{"doi": "10.1/x"})
	log.WarnObj("cache read failed", "error", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "publication request" || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	fields := entries[0].ContextMap()
	req, ok := fields["request"].(map[string]any)
	if !ok || req["doi"] != "10.1/x" {
		t.Fatalf("request object missing: %#v", fields)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", entries[1].Level)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning") != zapcore.WarnLevel {
		t.Fatalf("warning should map to warn")
	}
	if parseLevel("nonsense") != zapcore.InfoLevel {
		t.Fatalf("unknown levels should default to info")
	}
}

func TestEnsureReturnsNop(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil input")
	}
}
