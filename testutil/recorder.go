package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Record is one event captured by a Recorder.
type Record struct {
	Kind string
	Tag  string
	Text string
}

func (r Record) String() string {
	if r.Tag != "" {
		return fmt.Sprintf("%s [%s] %s", r.Kind, r.Tag, r.Text)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Text)
}

// Recorder captures status messages and output lines in arrival order.
// It satisfies the supervisor's reporter interface.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *Recorder) Line(tag, text string) { r.add(Record{Kind: "line", Tag: tag, Text: text}) }

func (r *Recorder) Success(format string, args ...any) {
	r.add(Record{Kind: "ok", Text: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Warning(format string, args ...any) {
	r.add(Record{Kind: "warning", Text: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Error(format string, args ...any) {
	r.add(Record{Kind: "error", Text: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Info(format string, args ...any) {
	r.add(Record{Kind: "info", Text: fmt.Sprintf(format, args...)})
}

// Records returns a copy of everything captured so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Filter returns the captured records of one kind.
func (r *Recorder) Filter(kind string) []Record {
	out := []Record{}
	for _, rec := range r.Records() {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// Lines returns the output text captured for tag, in order.
func (r *Recorder) Lines(tag string) []string {
	out := []string{}
	for _, rec := range r.Records() {
		if rec.Kind == "line" && rec.Tag == tag {
			out = append(out, rec.Text)
		}
	}
	return out
}

// Index returns the position of the first record of kind whose text
// contains substr, or -1.
func (r *Recorder) Index(kind, substr string) int {
	for idx, rec := range r.Records() {
		if rec.Kind == kind && strings.Contains(rec.Text, substr) {
			return idx
		}
	}
	return -1
}

// WaitFor blocks until a record of kind containing substr arrives or the
// context expires.
func (r *Recorder) WaitFor(ctx context.Context, kind, substr string) bool {
	ticker := time.NewTicker(PollingInterval)
	defer ticker.Stop()

	for {
		if r.Index(kind, substr) >= 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return r.Index(kind, substr) >= 0
		case <-ticker.C:
		}
	}
}
