package wakeengine

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DetectionEvent is emitted when a detector's activation state machine
// reaches its trigger level (spec.md §4.5).
type DetectionEvent struct {
	ID        uuid.UUID `json:"-"`
	Keyword   string    `json:"wake_word"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"-"`
}

// Sink serializes detection events to an output stream. Implementations
// must be safe for concurrent Emit calls from multiple detector workers;
// spec.md §5 requires this via a single shared output mutex.
type Sink interface {
	Emit(DetectionEvent) error
}

// mutexSink guards a writer with a single mutex, held only for the
// duration of one emission, per spec.md §5.
type mutexSink struct {
	mu            sync.Mutex
	w             io.Writer
	json          bool
	showTimestamp bool
}

// NewLineSink renders detection events as `[<HH:MM:SS>] <keyword>` (or
// bare `<keyword>` when showTimestamp is false), one per line.
func NewLineSink(w io.Writer, showTimestamp bool) Sink {
	return &mutexSink{w: w, showTimestamp: showTimestamp}
}

// NewJSONSink renders detection events as one JSON object per line with
// fields wake_word, score, and (if showTimestamp) timestamp.
func NewJSONSink(w io.Writer, showTimestamp bool) Sink {
	return &mutexSink{w: w, json: true, showTimestamp: showTimestamp}
}

func (s *mutexSink) Emit(ev DetectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.json {
		rec := struct {
			WakeWord  string  `json:"wake_word"`
			Score     float64 `json:"score"`
			Timestamp string  `json:"timestamp,omitempty"`
		}{
			WakeWord: ev.Keyword,
			Score:    ev.Score,
		}
		if s.showTimestamp {
			rec.Timestamp = ev.Timestamp.Format("2006-01-02 15:04:05.000")
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(s.w, "%s\n", data)
		return err
	}

	if s.showTimestamp {
		_, err := fmt.Fprintf(s.w, "[%s] %s\n", ev.Timestamp.Format("15:04:05"), ev.Keyword)
		return err
	}
	_, err := fmt.Fprintf(s.w, "%s\n", ev.Keyword)
	return err
}

// DebugWriter writes a `<keyword> <p>\n` line to w on every prediction,
// per spec.md §4.5's --debug flag. It is independent of Sink because it
// fires on every prediction, not only on trigger.
type DebugWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewDebugWriter wraps w for per-prediction debug output.
func NewDebugWriter(w io.Writer) *DebugWriter {
	return &DebugWriter{w: w}
}

// Record writes one debug line. Safe for concurrent use.
func (d *DebugWriter) Record(keyword string, p float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "%s %v\n", keyword, p)
}
