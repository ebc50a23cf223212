package logger

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultRecentLogCapacity = 1000
	defaultRecentLogLimit    = 50
	maxRecentLogLimit        = 500
)

// RecentLogEntry is one captured log line, kept in memory for the admin
// console. Nothing here is persisted.
type RecentLogEntry struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// RecentLogs is a fixed-capacity ring of the newest log entries. Writers
// overwrite the oldest slot once full.
type RecentLogs struct {
	mu      sync.RWMutex
	entries []RecentLogEntry
	next    int
	count   int
	seq     int64
}

func NewRecentLogs(capacity int) *RecentLogs {
	if capacity <= 0 {
		capacity = defaultRecentLogCapacity
	}
	return &RecentLogs{entries: make([]RecentLogEntry, capacity)}
}

// Capture returns a logger that mirrors every entry passing the base core
// into the ring.
func Capture(base *zap.Logger, ring *RecentLogs) *zap.Logger {
	if base == nil || ring == nil {
		return base
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &captureCore{Core: core, ring: ring}
	}))
}

// Query returns up to limit entries, newest first, optionally filtered by
// level and a case-insensitive keyword.
func (r *RecentLogs) Query(level, keyword string, limit int) []RecentLogEntry {
	if r == nil {
		return nil
	}
	if limit <= 0 {
		limit = defaultRecentLogLimit
	}
	if limit > maxRecentLogLimit {
		limit = maxRecentLogLimit
	}

	level = strings.ToLower(strings.TrimSpace(level))
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]RecentLogEntry, 0, limit)
	for i := 0; i < r.count && len(result) < limit; i++ {
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.entries)
		}
		entry := r.entries[idx]

		if level != "" && entry.Level != level {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(entry.Message), keyword) &&
			!strings.Contains(strings.ToLower(entry.Caller), keyword) {
			continue
		}
		result = append(result, entry)
	}
	return result
}

func (r *RecentLogs) add(entry zapcore.Entry, fields []zapcore.Field) {
	var fieldMap map[string]any
	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, field := range fields {
			field.AddTo(enc)
		}
		if len(enc.Fields) > 0 {
			fieldMap = enc.Fields
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.entries[r.next] = RecentLogEntry{
		ID:        r.seq,
		Timestamp: entry.Time.UTC(),
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Caller:    entry.Caller.TrimmedPath(),
		Fields:    fieldMap,
	}
	r.next = (r.next + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

type captureCore struct {
	zapcore.Core
	ring *RecentLogs
}

func (c *captureCore) With(fields []zapcore.Field) zapcore.Core {
	return &captureCore{Core: c.Core.With(fields), ring: c.ring}
}

func (c *captureCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Core.Check(entry, nil) == nil {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *captureCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.ring != nil {
		c.ring.add(entry, fields)
	}
	return c.Core.Write(entry, fields)
}
