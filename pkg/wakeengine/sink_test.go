package wakeengine

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestLineSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLineSink(&buf, false)
	if err := sink.Emit(DetectionEvent{Keyword: "hey_kestrel", Score: 0.9}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "hey_kestrel\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLineSinkWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLineSink(&buf, true)
	ts := time.Date(2026, 1, 1, 13, 5, 9, 0, time.UTC)
	if err := sink.Emit(DetectionEvent{Keyword: "hey_kestrel", Timestamp: ts}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "[13:05:09] hey_kestrel\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSONSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf, true)
	ts := time.Date(2026, 1, 1, 13, 5, 9, 500_000_000, time.UTC)
	if err := sink.Emit(DetectionEvent{Keyword: "hey_kestrel", Score: 0.83, Timestamp: ts}); err != nil {
		t.Fatal(err)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, buf.String())
	}
	if rec["wake_word"] != "hey_kestrel" {
		t.Errorf("wake_word = %v", rec["wake_word"])
	}
	if rec["score"] != 0.83 {
		t.Errorf("score = %v", rec["score"])
	}
	if rec["timestamp"] == nil {
		t.Errorf("timestamp missing")
	}
}

func TestDebugWriterRecord(t *testing.T) {
	var buf bytes.Buffer
	dw := NewDebugWriter(&buf)
	dw.Record("hey_kestrel", 0.42)
	if got, want := buf.String(), "hey_kestrel 0.42\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
