// CLAUDE:SUMMARY Vigil service facade: wires capture, OCR, summarization, scheduling, audit, and report reads.

// Package vigil monitors a single user's screen activity. A scheduler
// periodically captures the display, recognizes the on-screen text, and
// accumulates it; accumulated text is condensed into a short readable
// report served over HTTP and MCP.
package vigil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/vigil/internal/artifact"
	"github.com/hazyhaar/vigil/internal/capture"
	"github.com/hazyhaar/vigil/internal/idgen"
	"github.com/hazyhaar/vigil/internal/kit"
	"github.com/hazyhaar/vigil/internal/metrics"
	"github.com/hazyhaar/vigil/internal/ocr"
	"github.com/hazyhaar/vigil/internal/report"
	"github.com/hazyhaar/vigil/internal/scheduler"
	"github.com/hazyhaar/vigil/internal/store"
	"github.com/hazyhaar/vigil/internal/summarize"
)

// Rows and counters served by the read operations, named at the root so
// callers outside the module can use them.
type (
	CycleRecord  = store.CycleRecord
	ReportRecord = store.ReportRecord
	CycleStats   = store.CycleStats
	Stats        = metrics.Stats
)

// noDataSummary is the sentinel summary served before the first report.
const noDataSummary = "no data yet"

// ApplySchema creates the audit tables and indexes when they do not exist.
// Callers embedding the service apply it once on their own handle; cmd/vigil
// applies it through dbopen.WithSchema instead.
func ApplySchema(db *sql.DB) error {
	return store.ApplySchema(db)
}

// ReportDoc is the report document served to readers. NoData marks the
// sentinel state before the first successful summarization.
type ReportDoc struct {
	ID            string    `json:"id,omitempty"`
	Sequence      int64     `json:"sequence"`
	Summary       string    `json:"summary"`
	GeneratedAt   time.Time `json:"generated_at,omitzero"`
	FirstReportAt time.Time `json:"first_report_at,omitzero"`
	CycleCount    int       `json:"cycle_count"`
	WindowStart   time.Time `json:"window_start,omitzero"`
	WindowEnd     time.Time `json:"window_end,omitzero"`
	NoData        bool      `json:"no_data"`
}

// Service is the main vigil orchestrator.
type Service struct {
	cfg    *Config
	logger *slog.Logger

	source     capture.Source
	extractor  ocr.Extractor
	summarizer summarize.Summarizer

	reports   *report.Store
	audit     *store.Store
	artifacts *artifact.Writer
	sched     *scheduler.Scheduler
	stats     *metrics.Pipeline

	newID    idgen.Generator
	username string

	seq     atomic.Int64 // capture cycle sequence
	cycling atomic.Bool  // single-flight gate shared by ticks and CycleNow
	closed  atomic.Bool
}

// New creates a vigil Service over an opened database handle. The handle
// stays owned by the caller and is not closed by the service.
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("vigil: database handle is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{
		cfg:      cfg,
		logger:   logger,
		audit:    store.New(db),
		stats:    &metrics.Pipeline{},
		newID:    idgen.Prefixed("cyc_", idgen.Default),
		username: cfg.Report.Username,
	}
	if svc.username == "" {
		svc.username = currentUsername()
	}

	// Apply options.
	for _, opt := range opts {
		opt(svc)
	}

	if svc.source == nil {
		svc.source = capture.NewScreen(cfg.Capture.Display)
	}
	if svc.extractor == nil {
		svc.extractor = ocr.NewTesseract(ocr.TesseractConfig{
			Language: cfg.OCR.Language,
			Quality: ocr.Quality{
				MinPrintable: cfg.OCR.MinPrintable,
				MinWordlike:  cfg.OCR.MinWordlike,
			},
			MinConfidence: cfg.OCR.MinConfidence,
			Logger:        logger,
		})
	}
	if svc.summarizer == nil {
		svc.summarizer = summarize.NewClient(summarize.ClientConfig{
			BaseURL:   cfg.Summary.BaseURL,
			Model:     cfg.Summary.Model,
			MaxTokens: cfg.Summary.MaxTokens,
			MaxInput:  cfg.Summary.MaxInput,
			Logger:    logger,
		})
	}

	// Timeout inside the breaker: a timed-out call counts as a failure.
	breaker := summarize.NewCircuitBreaker(
		summarize.WithBreakerThreshold(cfg.Summary.Breaker.Threshold),
		summarize.WithBreakerResetTimeout(cfg.Summary.Breaker.ResetAfter),
	)
	svc.summarizer = summarize.WithBreaker(
		summarize.WithTimeout(svc.summarizer, cfg.Summary.Timeout), breaker)

	svc.reports = report.New(svc.summarizer, report.Config{
		MinCycles:   cfg.Summary.MinCycles,
		MaxWait:     cfg.Summary.MaxWait,
		CarryWindow: cfg.Summary.CarryWindow,
		OnReport:    svc.onReport,
		Metrics:     svc.stats,
		Logger:      logger,
	})

	svc.artifacts = artifact.NewWriter(cfg.artifactDir())

	svc.sched = scheduler.New(svc.tick, scheduler.Config{
		Interval: cfg.Capture.Interval,
		Logger:   logger,
	})

	return svc, nil
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithSource overrides the screen grabber. Use in tests and on hosts
// without a display.
func WithSource(src capture.Source) ServiceOption {
	return func(svc *Service) { svc.source = src }
}

// WithExtractor overrides the OCR engine.
func WithExtractor(e ocr.Extractor) ServiceOption {
	return func(svc *Service) { svc.extractor = e }
}

// WithSummarizer overrides the summarization backend. The configured
// timeout and circuit breaker still wrap it.
func WithSummarizer(s summarize.Summarizer) ServiceOption {
	return func(svc *Service) { svc.summarizer = s }
}

// Start launches the capture scheduler. Non-blocking; the scheduler stops
// when ctx is canceled.
func (svc *Service) Start(ctx context.Context) {
	go svc.sched.Run(ctx)
	svc.logger.Info("vigil: started",
		"interval", svc.cfg.Capture.Interval,
		"source", svc.source.Name(),
		"extractor", svc.extractor.Name())
}

// Close shuts down the service. Idempotent.
func (svc *Service) Close() error {
	if svc.closed.CompareAndSwap(false, true) {
		svc.logger.Info("vigil: closed")
	}
	return nil
}

// --- Read operations ---

// Report returns the current report document. Before the first successful
// summarization it returns the no-data sentinel, never an error. No side
// effects on pipeline state.
func (svc *Service) Report(ctx context.Context) ReportDoc {
	rpt, ok := svc.reports.Current()
	if !ok {
		return ReportDoc{Summary: noDataSummary, NoData: true}
	}
	return docFromReport(rpt)
}

// History returns persisted reports, newest first.
func (svc *Service) History(ctx context.Context, limit int) ([]*ReportRecord, error) {
	return svc.audit.RecentReports(ctx, limit)
}

// Cycles returns recent cycle audit rows, newest first.
func (svc *Service) Cycles(ctx context.Context, limit int) ([]*CycleRecord, error) {
	return svc.audit.RecentCycles(ctx, limit)
}

// Stats returns a point-in-time snapshot of the pipeline counters.
func (svc *Service) Stats() Stats {
	return svc.stats.Snapshot()
}

// CycleCounts aggregates the audit log by cycle status. Unlike Stats it
// reflects everything persisted, including rows from earlier runs.
func (svc *Service) CycleCounts(ctx context.Context) (*CycleStats, error) {
	return svc.audit.CycleCounts(ctx)
}

// --- Commands ---

// CycleNow runs one on-demand capture cycle and evaluates the trigger.
// The cycle outcome is encoded in the returned record, not the error;
// ErrBusy means a cycle was already running.
func (svc *Service) CycleNow(ctx context.Context) (CycleRecord, error) {
	svc.logger.Info("vigil: cycle requested",
		"transport", kit.GetTransport(ctx), "req", kit.GetRequestID(ctx))
	rec, err := svc.runCycle(ctx)
	if err != nil {
		return CycleRecord{}, err
	}
	svc.maybeTrigger(ctx)
	return rec, nil
}

// SummarizeNow forces one summarization attempt regardless of the trigger
// policy. Coalesces with any in-flight run (ErrBusy).
func (svc *Service) SummarizeNow(ctx context.Context) (ReportDoc, error) {
	svc.logger.Info("vigil: summarization requested",
		"transport", kit.GetTransport(ctx), "req", kit.GetRequestID(ctx))
	rpt, err := svc.summarize(ctx)
	switch {
	case err == nil:
		return docFromReport(rpt), nil
	case errors.Is(err, report.ErrInFlight):
		return ReportDoc{}, ErrBusy
	case errors.Is(err, report.ErrNoData):
		return ReportDoc{}, ErrNothingToSummarize
	default:
		return ReportDoc{}, fmt.Errorf("%w: %v", ErrSummarizeFailed, err)
	}
}

// --- Internal ---

// tick is the scheduler runner: one capture cycle, then trigger evaluation.
// The trigger check runs even after failed or skipped cycles so a stale
// partial window still flushes when max_wait is set.
func (svc *Service) tick(ctx context.Context) {
	if _, err := svc.runCycle(ctx); errors.Is(err, ErrBusy) {
		svc.logger.Debug("vigil: tick skipped, cycle already running")
		rec := CycleRecord{
			ID:        svc.newID(),
			Seq:       svc.seq.Load(),
			Status:    store.StatusSkipped,
			StartedAt: time.Now().UnixMilli(),
		}
		if aErr := svc.audit.InsertCycle(ctx, &rec); aErr != nil {
			svc.logger.Warn("vigil: cycle audit write failed", "error", aErr)
		}
	}
	svc.maybeTrigger(ctx)
}

// runCycle executes one capture cycle: grab, recognize, append. Pipeline
// failures are audited and encoded in the record status; the only returned
// error is ErrBusy when another cycle holds the gate.
func (svc *Service) runCycle(ctx context.Context) (CycleRecord, error) {
	if !svc.cycling.CompareAndSwap(false, true) {
		return CycleRecord{}, ErrBusy
	}
	defer svc.cycling.Store(false)

	started := time.Now()
	rec := CycleRecord{
		ID:        svc.newID(),
		Seq:       svc.seq.Add(1),
		StartedAt: started.UnixMilli(),
	}

	if img, err := svc.source.Capture(ctx); err != nil {
		cErr := fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		rec.Status = store.StatusCaptureError
		rec.Error = cErr.Error()
		svc.stats.CaptureError()
		svc.logger.Warn("vigil: cycle failed", "seq", rec.Seq, "error", cErr)
	} else if text, xErr := svc.extractor.ExtractText(ctx, img); errors.Is(xErr, ocr.ErrNoText) {
		rec.Status = store.StatusEmpty
		svc.stats.EmptyExtraction()
		svc.logger.Debug("vigil: nothing usable on screen", "seq", rec.Seq)
	} else if xErr != nil {
		eErr := fmt.Errorf("%w: %v", ErrExtractionFailed, xErr)
		rec.Status = store.StatusExtractError
		rec.Error = eErr.Error()
		svc.stats.ExtractError()
		svc.logger.Warn("vigil: cycle failed", "seq", rec.Seq, "error", eErr)
	} else {
		rec.Status = store.StatusOK
		rec.Chars = len(text)
		svc.stats.CycleOK()
		svc.reports.Append(rec.Seq, started, text)
	}

	rec.DurationMs = time.Since(started).Milliseconds()
	svc.stats.CycleRun()
	if err := svc.audit.InsertCycle(ctx, &rec); err != nil {
		svc.logger.Warn("vigil: cycle audit write failed", "seq", rec.Seq, "error", err)
	}
	return rec, nil
}

// maybeTrigger fires a background summarization when the policy says the
// window is due. The report store's in-flight gate coalesces overlapping
// triggers.
func (svc *Service) maybeTrigger(ctx context.Context) {
	if !svc.reports.ShouldSummarize(time.Now()) {
		return
	}
	go func() {
		_, _ = svc.summarize(ctx)
	}()
}

// summarize runs one coalesced summarization attempt and audits the
// outcome. Coalesced and empty-buffer results are not attempts and leave
// no audit row.
func (svc *Service) summarize(ctx context.Context) (report.Report, error) {
	started := time.Now()
	rpt, err := svc.reports.MaybeSummarize(ctx)
	if errors.Is(err, report.ErrInFlight) || errors.Is(err, report.ErrNoData) {
		return report.Report{}, err
	}

	rec := CycleRecord{
		ID:         svc.newID(),
		Seq:        svc.seq.Load(),
		StartedAt:  started.UnixMilli(),
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err != nil {
		rec.Status = store.StatusSummarizeError
		rec.Error = err.Error()
	} else {
		rec.Status = store.StatusSummarizeOK
		rec.Chars = len(rpt.Summary)
	}
	if aErr := svc.audit.InsertCycle(ctx, &rec); aErr != nil {
		svc.logger.Warn("vigil: summarize audit write failed", "error", aErr)
	}
	return rpt, err
}

// onReport persists a history row and rebuilds the daily readable file.
// Both are best-effort; failures never reach the pipeline. Detached
// context: a report published during shutdown is still persisted.
func (svc *Service) onReport(r report.Report) {
	ctx := context.Background()
	rec := ReportRecord{
		ID:          r.ID,
		Sequence:    r.Sequence,
		Summary:     r.Summary,
		CycleCount:  r.CycleCount,
		WindowStart: r.WindowStart.UnixMilli(),
		WindowEnd:   r.WindowEnd.UnixMilli(),
		GeneratedAt: r.GeneratedAt.UnixMilli(),
	}
	if err := svc.audit.InsertReport(ctx, &rec); err != nil {
		svc.logger.Warn("vigil: report history write failed", "error", err)
	}
	if err := svc.writeArtifact(ctx, r); err != nil {
		svc.logger.Warn("vigil: readable report write failed", "error", err)
	}
}

// writeArtifact rebuilds the readable file for the report's day from the
// persisted history rows.
func (svc *Service) writeArtifact(ctx context.Context, r report.Report) error {
	at := r.GeneratedAt
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	recs, err := svc.audit.ReportsSince(ctx, day.UnixMilli())
	if err != nil {
		return fmt.Errorf("load day reports: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	path, err := svc.artifacts.Write(day, renderDay(recs, svc.username))
	if err != nil {
		return err
	}
	svc.logger.Debug("vigil: readable report written", "path", path, "reports", len(recs))
	return nil
}

func docFromReport(r report.Report) ReportDoc {
	return ReportDoc{
		ID:            r.ID,
		Sequence:      r.Sequence,
		Summary:       r.Summary,
		GeneratedAt:   r.GeneratedAt,
		FirstReportAt: r.FirstReportAt,
		CycleCount:    r.CycleCount,
		WindowStart:   r.WindowStart,
		WindowEnd:     r.WindowEnd,
	}
}
