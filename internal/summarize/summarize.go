// Package summarize condenses accumulated screen text into short reports.
//
// The pipeline sees one interface: text in, condensed text out, or a
// failure. The production implementation talks to an OpenAI-compatible
// chat-completions server; composition wrappers add a per-call timeout and
// a circuit breaker so a hung or dead model server degrades to skipped
// summaries instead of a stuck scheduler.
package summarize

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable means the circuit breaker is open and the call was shed.
var ErrUnavailable = errors.New("summarize: circuit open")

// Summarizer converts accumulated text into a condensed report.
type Summarizer interface {
	// Name identifies the summarizer in logs and audit rows.
	Name() string

	// Summarize condenses text. Implementations must honor ctx; a timeout
	// or cancellation is a summarization failure like any other.
	Summarize(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function into a named Summarizer.
func Func(name string, fn func(ctx context.Context, text string) (string, error)) Summarizer {
	return funcSummarizer{name: name, fn: fn}
}

type funcSummarizer struct {
	name string
	fn   func(ctx context.Context, text string) (string, error)
}

func (s funcSummarizer) Name() string { return s.name }

func (s funcSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.fn(ctx, text)
}

// WithTimeout bounds every Summarize call with its own deadline. A zero or
// negative duration returns the Summarizer unchanged.
func WithTimeout(s Summarizer, d time.Duration) Summarizer {
	if d <= 0 {
		return s
	}
	return Func(s.Name(), func(ctx context.Context, text string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return s.Summarize(ctx, text)
	})
}
