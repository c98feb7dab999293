// Package report owns the text accumulated from capture cycles and the
// latest generated summary. A single writer (the pipeline) appends text and
// triggers summarization; any number of readers fetch the current report
// without locking. The report handoff is an immutable snapshot swap: readers
// always see the last fully generated report, never a partial one.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/vigil/internal/idgen"
	"github.com/hazyhaar/vigil/internal/metrics"
	"github.com/hazyhaar/vigil/internal/summarize"
)

var (
	// ErrNoData means the buffer holds no text to summarize.
	ErrNoData = errors.New("report: no text accumulated")

	// ErrInFlight means another summarization is already running. Concurrent
	// triggers are coalesced, not queued.
	ErrInFlight = errors.New("report: summarization in flight")
)

// Entry is the extracted text of one successful capture cycle.
type Entry struct {
	Seq  int64     `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Report is an immutable summary snapshot. Once published it is never
// mutated; a new summarization produces a fresh Report.
type Report struct {
	ID            string    `json:"id"`
	Sequence      int64     `json:"sequence"`
	Summary       string    `json:"summary"`
	GeneratedAt   time.Time `json:"generated_at"`
	FirstReportAt time.Time `json:"first_report_at"`
	CycleCount    int       `json:"cycle_count"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
}

// Config controls the summarization trigger and windowing policy.
type Config struct {
	// MinCycles triggers summarization once the buffer holds at least this
	// many entries. Default 3.
	MinCycles int

	// MaxWait triggers summarization once the oldest buffered entry is older
	// than this, even below MinCycles. Zero disables the time trigger.
	MaxWait time.Duration

	// CarryWindow keeps the last N summarized entries as context for the
	// next summarization. They are fed to the model again but never counted
	// in CycleCount. Zero clears the summarized window entirely.
	CarryWindow int

	// OnReport is called with each newly published report, outside any lock.
	// Used for history persistence and artifact writing. Optional.
	OnReport func(Report)

	IDs     idgen.Generator
	Metrics *metrics.Pipeline
	Logger  *slog.Logger
	Now     func() time.Time
}

func (c *Config) defaults() {
	if c.MinCycles <= 0 {
		c.MinCycles = 3
	}
	if c.IDs == nil {
		c.IDs = idgen.Prefixed("rpt_", idgen.Default)
	}
	if c.Metrics == nil {
		c.Metrics = &metrics.Pipeline{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Store accumulates extracted text and publishes summaries.
type Store struct {
	cfg        Config
	summarizer summarize.Summarizer

	mu      sync.Mutex
	entries []Entry // unsummarized, chronological
	carry   []Entry // tail of the last summarized window, context only
	firstAt time.Time

	current  atomic.Value // stores *Report
	inFlight atomic.Bool
}

// New creates a store that condenses accumulated text through s.
func New(s summarize.Summarizer, cfg Config) *Store {
	cfg.defaults()
	return &Store{cfg: cfg, summarizer: s}
}

// Append adds one cycle's extracted text to the buffer. It never blocks on
// summarization.
func (st *Store) Append(seq int64, at time.Time, text string) {
	st.mu.Lock()
	st.entries = append(st.entries, Entry{Seq: seq, Time: at, Text: text})
	pending := len(st.entries)
	st.mu.Unlock()

	st.cfg.Logger.Debug("report: text appended",
		"seq", seq,
		"chars", len(text),
		"pending", pending)
}

// Pending returns the number of buffered entries not yet summarized.
func (st *Store) Pending() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// Current returns the latest published report. ok is false before the first
// successful summarization. Never blocks on an in-progress summarization.
func (st *Store) Current() (Report, bool) {
	v := st.current.Load()
	if v == nil {
		return Report{}, false
	}
	return *v.(*Report), true
}

// ShouldSummarize reports whether the trigger policy is satisfied: the
// buffer holds MinCycles entries, or the oldest entry has waited past
// MaxWait.
func (st *Store) ShouldSummarize(now time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.entries) == 0 {
		return false
	}
	if len(st.entries) >= st.cfg.MinCycles {
		return true
	}
	if st.cfg.MaxWait > 0 && now.Sub(st.entries[0].Time) >= st.cfg.MaxWait {
		return true
	}
	return false
}

// MaybeSummarize condenses the buffered text into a new report. At most one
// summarization runs at a time: a concurrent call returns ErrInFlight
// without invoking the summarizer. On success the summarized entries leave
// the buffer (entries appended during the call are kept for the next round)
// and the new report is published atomically. On failure the buffer and the
// previous report are left untouched.
func (st *Store) MaybeSummarize(ctx context.Context) (Report, error) {
	if !st.inFlight.CompareAndSwap(false, true) {
		st.cfg.Metrics.Coalesced()
		return Report{}, ErrInFlight
	}
	defer st.inFlight.Store(false)

	st.mu.Lock()
	window := append([]Entry(nil), st.entries...)
	carry := append([]Entry(nil), st.carry...)
	st.mu.Unlock()

	if len(window) == 0 {
		return Report{}, ErrNoData
	}

	texts := make([]string, 0, len(carry)+len(window))
	for _, e := range carry {
		texts = append(texts, e.Text)
	}
	for _, e := range window {
		texts = append(texts, e.Text)
	}
	input := strings.Join(texts, " ")

	st.cfg.Logger.Info("report: summarizing window",
		"cycles", len(window),
		"carry", len(carry),
		"chars", len(input))

	summary, err := st.summarizer.Summarize(ctx, input)
	if err != nil {
		st.cfg.Metrics.SummaryFailed()
		st.cfg.Logger.Warn("report: summarization failed, keeping previous report",
			"cycles", len(window),
			"error", err)
		return Report{}, fmt.Errorf("summarize window: %w", err)
	}

	now := st.cfg.Now()

	st.mu.Lock()
	if st.firstAt.IsZero() {
		st.firstAt = now
	}
	var seq int64 = 1
	if prev := st.current.Load(); prev != nil {
		seq = prev.(*Report).Sequence + 1
	}
	rpt := Report{
		ID:            st.cfg.IDs(),
		Sequence:      seq,
		Summary:       summary,
		GeneratedAt:   now,
		FirstReportAt: st.firstAt,
		CycleCount:    len(window),
		WindowStart:   window[0].Time,
		WindowEnd:     window[len(window)-1].Time,
	}

	// Drop the summarized prefix. Entries appended while the summarizer ran
	// stay buffered for the next round.
	rest := make([]Entry, len(st.entries)-len(window))
	copy(rest, st.entries[len(window):])
	st.entries = rest

	st.carry = nil
	if n := st.cfg.CarryWindow; n > 0 {
		if n > len(window) {
			n = len(window)
		}
		st.carry = append([]Entry(nil), window[len(window)-n:]...)
	}

	st.current.Store(&rpt)
	st.mu.Unlock()

	st.cfg.Metrics.SummaryOK()
	st.cfg.Logger.Info("report: summary published",
		"report_id", rpt.ID,
		"sequence", rpt.Sequence,
		"cycles", rpt.CycleCount,
		"chars", len(rpt.Summary))

	if st.cfg.OnReport != nil {
		st.cfg.OnReport(rpt)
	}
	return rpt, nil
}
