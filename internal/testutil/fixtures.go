package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is a captured log record.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewLogRecorder creates an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{
		mu:      &sync.Mutex{},
		records: &[]Record{},
	}
}

// Logger returns a logger writing to the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(r)
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+record.NumAttrs())
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.records = append(*r.records, Record{Level: record.Level, Message: record.Message, Attrs: attrs})
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		mu:      r.mu,
		records: r.records,
		attrs:   append(append([]slog.Attr(nil), r.attrs...), attrs...),
	}
}

func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Records returns a snapshot of the captured records.
func (r *LogRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), *r.records...)
}

// Find returns the records at level with the given message.
func (r *LogRecorder) Find(level slog.Level, message string) []Record {
	var found []Record
	for _, rec := range r.Records() {
		if rec.Level == level && rec.Message == message {
			found = append(found, rec)
		}
	}
	return found
}

// Has reports whether a record at level with the given message was captured.
func (r *LogRecorder) Has(level slog.Level, message string) bool {
	return len(r.Find(level, message)) > 0
}
