package logger

import (
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func discardLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(io.Discard),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func TestRecentLogsCaptureAndQuery(t *testing.T) {
	t.Parallel()

	ring := NewRecentLogs(8)
	log := Capture(discardLogger(), ring)

	log.Info("gift sent", zap.String("sender", "alice"))
	log.Warn("quota exceeded")
	log.Error("settings refresh failed")

	all := ring.Query("", "", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Message != "settings refresh failed" {
		t.Fatalf("expected newest first, got %q", all[0].Message)
	}

	warns := ring.Query("warn", "", 0)
	if len(warns) != 1 || warns[0].Message != "quota exceeded" {
		t.Fatalf("level filter failed: %v", warns)
	}

	byKeyword := ring.Query("", "GIFT", 0)
	if len(byKeyword) != 1 || byKeyword[0].Message != "gift sent" {
		t.Fatalf("keyword filter failed: %v", byKeyword)
	}
	if byKeyword[0].Fields["sender"] != "alice" {
		t.Fatalf("fields not captured: %v", byKeyword[0].Fields)
	}
}

func TestRecentLogsOverwritesOldest(t *testing.T) {
	t.Parallel()

	ring := NewRecentLogs(2)
	log := Capture(discardLogger(), ring)

	log.Info("first")
	log.Info("second")
	log.Info("third")

	entries := ring.Query("", "", 0)
	if len(entries) != 2 {
		t.Fatalf("expected capacity 2, got %d entries", len(entries))
	}
	if entries[0].Message != "third" || entries[1].Message != "second" {
		t.Fatalf("expected the oldest entry evicted, got %v", entries)
	}
}

func TestRecentLogsNilSafe(t *testing.T) {
	t.Parallel()

	var ring *RecentLogs
	if entries := ring.Query("", "", 10); entries != nil {
		t.Fatalf("nil ring must return nothing, got %v", entries)
	}
}
