// Package metrics holds the pipeline's point-in-time counters.
//
// Counters are plain atomics so the scheduler can bump them from its loop
// without coordination and readers (the stats endpoint, MCP tools) can
// snapshot them without blocking anything.
package metrics

import (
	"sync/atomic"
	"time"
)

// Pipeline counts what the capture/extract/summarize loop has done so far.
// The zero value is ready to use.
type Pipeline struct {
	cyclesRun        atomic.Int64
	cyclesOK         atomic.Int64
	captureErrors    atomic.Int64
	extractErrors    atomic.Int64
	emptyExtractions atomic.Int64
	summariesOK      atomic.Int64
	summariesFailed  atomic.Int64
	coalesced        atomic.Int64
	lastCycleUnix    atomic.Int64
	lastReportUnix   atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	CyclesRun        int64     `json:"cycles_run"`
	CyclesOK         int64     `json:"cycles_ok"`
	CaptureErrors    int64     `json:"capture_errors"`
	ExtractErrors    int64     `json:"extract_errors"`
	EmptyExtractions int64     `json:"empty_extractions"`
	SummariesOK      int64     `json:"summaries_ok"`
	SummariesFailed  int64     `json:"summaries_failed"`
	Coalesced        int64     `json:"coalesced_triggers"`
	LastCycle        time.Time `json:"last_cycle,omitzero"`
	LastReport       time.Time `json:"last_report,omitzero"`
}

// CycleRun records a finished cycle regardless of outcome.
func (p *Pipeline) CycleRun() {
	p.cyclesRun.Add(1)
	p.lastCycleUnix.Store(time.Now().Unix())
}

// CycleOK records a cycle whose text reached the buffer.
func (p *Pipeline) CycleOK() { p.cyclesOK.Add(1) }

// CaptureError records a cycle that failed to obtain an image.
func (p *Pipeline) CaptureError() { p.captureErrors.Add(1) }

// ExtractError records a cycle whose extraction call failed.
func (p *Pipeline) ExtractError() { p.extractErrors.Add(1) }

// EmptyExtraction records a cycle whose extraction produced nothing usable.
func (p *Pipeline) EmptyExtraction() { p.emptyExtractions.Add(1) }

// SummaryOK records a successful summarization.
func (p *Pipeline) SummaryOK() {
	p.summariesOK.Add(1)
	p.lastReportUnix.Store(time.Now().Unix())
}

// SummaryFailed records a summarization failure (including timeouts).
func (p *Pipeline) SummaryFailed() { p.summariesFailed.Add(1) }

// Coalesced records a trigger that was dropped because one was in flight.
func (p *Pipeline) Coalesced() { p.coalesced.Add(1) }

// Snapshot returns the current counters.
func (p *Pipeline) Snapshot() Stats {
	s := Stats{
		CyclesRun:        p.cyclesRun.Load(),
		CyclesOK:         p.cyclesOK.Load(),
		CaptureErrors:    p.captureErrors.Load(),
		ExtractErrors:    p.extractErrors.Load(),
		EmptyExtractions: p.emptyExtractions.Load(),
		SummariesOK:      p.summariesOK.Load(),
		SummariesFailed:  p.summariesFailed.Load(),
		Coalesced:        p.coalesced.Load(),
	}
	if v := p.lastCycleUnix.Load(); v > 0 {
		s.LastCycle = time.Unix(v, 0).UTC()
	}
	if v := p.lastReportUnix.Load(); v > 0 {
		s.LastReport = time.Unix(v, 0).UTC()
	}
	return s
}
