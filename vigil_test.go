package vigil

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/vigil/internal/capture"
	"github.com/hazyhaar/vigil/internal/dbopen"
	"github.com/hazyhaar/vigil/internal/ocr"
	"github.com/hazyhaar/vigil/internal/store"
	"github.com/hazyhaar/vigil/internal/summarize"
)

// testConfig quiets the auto trigger (high MinCycles) so tests drive
// summarization explicitly. Artifacts land under a temp dir.
func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		DataDir: t.TempDir(),
		Capture: CaptureConfig{Interval: time.Hour},
		Summary: SummaryConfig{MinCycles: 100, Timeout: 5 * time.Second},
		Report:  ReportConfig{Username: "tester"},
	}
}

func staticImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func fixedExtractor(text string) ocr.Extractor {
	return ocr.Func("fixed", func(context.Context, image.Image) (string, error) {
		return text, nil
	})
}

func fixedSummarizer(summary string) summarize.Summarizer {
	return summarize.Func("fixed", func(context.Context, string) (string, error) {
		return summary, nil
	})
}

// newTestService builds a Service on an in-memory database with working
// fakes for the whole pipeline. Later options override the fakes.
func newTestService(t *testing.T, cfg *Config, opts ...ServiceOption) *Service {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	if cfg == nil {
		cfg = testConfig(t)
	}
	base := []ServiceOption{
		WithSource(capture.Static(staticImage())),
		WithExtractor(fixedExtractor("on screen text")),
		WithSummarizer(fixedSummarizer("condensed activity")),
	}
	svc, err := New(db, cfg, nil, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNew_RequiresDB(t *testing.T) {
	// WHAT: New refuses a nil database handle.
	// WHY: Every cycle audits to SQLite; there is no degraded mode without it.
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestReport_NoDataBeforeFirstSummary(t *testing.T) {
	// WHAT: Before any summarization, Report returns the no-data sentinel.
	// WHY: Readers must always get a well-formed document, never an error.
	svc := newTestService(t, nil)

	doc := svc.Report(context.Background())
	if !doc.NoData {
		t.Fatal("expected no-data sentinel")
	}
	if doc.Summary != "no data yet" {
		t.Errorf("sentinel summary = %q", doc.Summary)
	}
	if doc.CycleCount != 0 || doc.Sequence != 0 {
		t.Errorf("sentinel carries counts: %+v", doc)
	}
}

func TestCycleNow_AppendsRecognizedText(t *testing.T) {
	// WHAT: A clean cycle captures, recognizes, buffers, and audits.
	svc := newTestService(t, nil)
	ctx := context.Background()

	rec, err := svc.CycleNow(ctx)
	if err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if rec.Status != store.StatusOK {
		t.Fatalf("status = %q, want ok", rec.Status)
	}
	if rec.Seq != 1 {
		t.Errorf("seq = %d, want 1", rec.Seq)
	}
	if rec.Chars != len("on screen text") {
		t.Errorf("chars = %d, want %d", rec.Chars, len("on screen text"))
	}
	if !strings.HasPrefix(rec.ID, "cyc_") {
		t.Errorf("id = %q, want cyc_ prefix", rec.ID)
	}
	if got := svc.reports.Pending(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}

	cycles, err := svc.Cycles(ctx, 10)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Status != store.StatusOK {
		t.Errorf("unexpected audit rows: %+v", cycles)
	}
}

func TestCycleNow_CaptureFailure(t *testing.T) {
	// WHAT: A failed capture is audited with the error and buffers nothing.
	// WHY: One bad grab must not poison the report or stall the loop.
	svc := newTestService(t, nil, WithSource(
		capture.Func("broken", func(context.Context) (image.Image, error) {
			return nil, errors.New("grab failed")
		})))
	ctx := context.Background()

	rec, err := svc.CycleNow(ctx)
	if err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if rec.Status != store.StatusCaptureError {
		t.Fatalf("status = %q, want capture_error", rec.Status)
	}
	if !strings.Contains(rec.Error, "capture failed") || !strings.Contains(rec.Error, "grab failed") {
		t.Errorf("error = %q", rec.Error)
	}
	if got := svc.reports.Pending(); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
	if doc := svc.Report(ctx); !doc.NoData {
		t.Error("report should still be the no-data sentinel")
	}

	stats := svc.Stats()
	if stats.CyclesRun != 1 || stats.CaptureErrors != 1 || stats.CyclesOK != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCycleNow_NothingOnScreen(t *testing.T) {
	// WHAT: An extraction with nothing usable is "empty", not an error.
	// WHY: Blank screens are routine; they must not look like failures.
	svc := newTestService(t, nil, WithExtractor(
		ocr.Func("blank", func(context.Context, image.Image) (string, error) {
			return "", ocr.ErrNoText
		})))

	rec, err := svc.CycleNow(context.Background())
	if err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if rec.Status != store.StatusEmpty {
		t.Fatalf("status = %q, want empty", rec.Status)
	}
	if rec.Error != "" {
		t.Errorf("empty cycle carries error: %q", rec.Error)
	}
	if got := svc.reports.Pending(); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
	if got := svc.Stats().EmptyExtractions; got != 1 {
		t.Errorf("empty extractions = %d, want 1", got)
	}
}

func TestCycleNow_ExtractionFailure(t *testing.T) {
	// WHAT: A real OCR failure is audited as extract_error.
	svc := newTestService(t, nil, WithExtractor(
		ocr.Func("crashing", func(context.Context, image.Image) (string, error) {
			return "", errors.New("engine crashed")
		})))

	rec, err := svc.CycleNow(context.Background())
	if err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if rec.Status != store.StatusExtractError {
		t.Fatalf("status = %q, want extract_error", rec.Status)
	}
	if !strings.Contains(rec.Error, "text extraction failed") {
		t.Errorf("error = %q", rec.Error)
	}
	if got := svc.reports.Pending(); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
}

func TestCycleNow_Busy(t *testing.T) {
	// WHAT: A second cycle while one is running returns ErrBusy.
	// WHY: Cycles are single-flight; overlapping grabs would double-count.
	svc := newTestService(t, nil)

	svc.cycling.Store(true)
	defer svc.cycling.Store(false)

	if _, err := svc.CycleNow(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestTick_AuditsSkippedCycle(t *testing.T) {
	// WHAT: A scheduler tick that finds a cycle running audits "skipped".
	// WHY: The audit trail should show the tick happened and why it did nothing.
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.cycling.Store(true)
	svc.tick(ctx)
	svc.cycling.Store(false)

	cycles, err := svc.Cycles(ctx, 10)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Status != store.StatusSkipped {
		t.Fatalf("unexpected audit rows: %+v", cycles)
	}
}

func TestSummarizeNow_PublishesReport(t *testing.T) {
	// WHAT: Accumulated cycle texts are joined, summarized, and published.
	// WHY: This is the core path: pixels in, one readable report out.
	texts := []string{"alpha", "beta", "gamma"}
	calls := 0
	var gotInput string

	svc := newTestService(t, nil,
		WithExtractor(ocr.Func("scripted", func(context.Context, image.Image) (string, error) {
			text := texts[calls]
			calls++
			return text, nil
		})),
		WithSummarizer(summarize.Func("recording", func(_ context.Context, input string) (string, error) {
			gotInput = input
			return "condensed activity", nil
		})))
	ctx := context.Background()

	for range texts {
		if _, err := svc.CycleNow(ctx); err != nil {
			t.Fatalf("CycleNow: %v", err)
		}
	}

	doc, err := svc.SummarizeNow(ctx)
	if err != nil {
		t.Fatalf("SummarizeNow: %v", err)
	}
	if doc.Summary != "condensed activity" {
		t.Errorf("summary = %q", doc.Summary)
	}
	if doc.CycleCount != 3 {
		t.Errorf("cycle count = %d, want 3", doc.CycleCount)
	}
	if doc.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", doc.Sequence)
	}
	if doc.NoData {
		t.Error("published report marked no-data")
	}
	if doc.GeneratedAt.IsZero() || !doc.FirstReportAt.Equal(doc.GeneratedAt) {
		t.Errorf("first report should anchor itself: %+v", doc)
	}
	if gotInput != "alpha beta gamma" {
		t.Errorf("summarizer input = %q", gotInput)
	}
	if got := svc.reports.Pending(); got != 0 {
		t.Errorf("pending = %d, want 0 after summarization", got)
	}

	if current := svc.Report(ctx); current.Summary != doc.Summary || current.NoData {
		t.Errorf("Report() = %+v", current)
	}

	history, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Summary != "condensed activity" {
		t.Errorf("history = %+v", history)
	}

	cycles, err := svc.Cycles(ctx, 10)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	var summarized *CycleRecord
	for _, c := range cycles {
		if c.Status == store.StatusSummarizeOK {
			summarized = c
		}
	}
	if summarized == nil {
		t.Fatal("no summarize_ok audit row")
	}
	if summarized.Chars != len("condensed activity") {
		t.Errorf("summarize_ok chars = %d", summarized.Chars)
	}
}

func TestSummarizeNow_EmptyBuffer(t *testing.T) {
	// WHAT: Forcing a summary with nothing buffered is a distinct error.
	svc := newTestService(t, nil)

	if _, err := svc.SummarizeNow(context.Background()); !errors.Is(err, ErrNothingToSummarize) {
		t.Fatalf("err = %v, want ErrNothingToSummarize", err)
	}
}

func TestSummarizeNow_FailureKeepsBuffer(t *testing.T) {
	// WHAT: A failed summarization keeps the buffer; the retry sees old and
	// new text together.
	// WHY: Captured activity must never be lost to a flaky model server.
	texts := []string{"alpha", "beta"}
	calls := 0
	fail := true
	var inputs []string

	svc := newTestService(t, nil,
		WithExtractor(ocr.Func("scripted", func(context.Context, image.Image) (string, error) {
			text := texts[calls]
			calls++
			return text, nil
		})),
		WithSummarizer(summarize.Func("flaky", func(_ context.Context, input string) (string, error) {
			inputs = append(inputs, input)
			if fail {
				return "", errors.New("model down")
			}
			return "recovered", nil
		})))
	ctx := context.Background()

	if _, err := svc.CycleNow(ctx); err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if _, err := svc.SummarizeNow(ctx); !errors.Is(err, ErrSummarizeFailed) {
		t.Fatalf("err = %v, want ErrSummarizeFailed", err)
	}
	if got := svc.reports.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1 after failure", got)
	}
	if doc := svc.Report(ctx); !doc.NoData {
		t.Error("failed summarization must not publish")
	}

	cycles, _ := svc.Cycles(ctx, 10)
	found := false
	for _, c := range cycles {
		if c.Status == store.StatusSummarizeError && strings.Contains(c.Error, "model down") {
			found = true
		}
	}
	if !found {
		t.Error("no summarize_error audit row")
	}

	fail = false
	if _, err := svc.CycleNow(ctx); err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	doc, err := svc.SummarizeNow(ctx)
	if err != nil {
		t.Fatalf("retry SummarizeNow: %v", err)
	}
	if doc.Summary != "recovered" || doc.CycleCount != 2 {
		t.Errorf("retry doc = %+v", doc)
	}
	if want := []string{"alpha", "alpha beta"}; len(inputs) != 2 || inputs[0] != want[0] || inputs[1] != want[1] {
		t.Errorf("summarizer inputs = %q, want %q", inputs, want)
	}
}

func TestSummarizeNow_TimeoutIsFailure(t *testing.T) {
	// WHAT: A summarizer slower than the configured timeout fails the attempt.
	// WHY: A hung model server must not pin the pipeline.
	cfg := testConfig(t)
	cfg.Summary.Timeout = 20 * time.Millisecond

	svc := newTestService(t, cfg, WithSummarizer(
		summarize.Func("slow", func(ctx context.Context, _ string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
				return "too late", nil
			}
		})))
	ctx := context.Background()

	if _, err := svc.CycleNow(ctx); err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if _, err := svc.SummarizeNow(ctx); !errors.Is(err, ErrSummarizeFailed) {
		t.Fatalf("err = %v, want ErrSummarizeFailed", err)
	}
	if got := svc.reports.Pending(); got != 1 {
		t.Errorf("pending = %d, want 1 after timeout", got)
	}
	if got := svc.Stats().SummariesFailed; got != 1 {
		t.Errorf("summaries failed = %d, want 1", got)
	}
}

func TestSummarizeNow_SkipsFailedCycleText(t *testing.T) {
	// WHAT: Text from failed cycles never reaches the summarizer.
	calls := 0
	var gotInput string

	svc := newTestService(t, nil,
		WithExtractor(ocr.Func("scripted", func(context.Context, image.Image) (string, error) {
			calls++
			switch calls {
			case 1:
				return "alpha", nil
			case 2:
				return "", errors.New("engine crashed")
			default:
				return "gamma", nil
			}
		})),
		WithSummarizer(summarize.Func("recording", func(_ context.Context, input string) (string, error) {
			gotInput = input
			return "condensed", nil
		})))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CycleNow(ctx); err != nil {
			t.Fatalf("CycleNow %d: %v", i, err)
		}
	}

	doc, err := svc.SummarizeNow(ctx)
	if err != nil {
		t.Fatalf("SummarizeNow: %v", err)
	}
	if gotInput != "alpha gamma" {
		t.Errorf("summarizer input = %q, want %q", gotInput, "alpha gamma")
	}
	if doc.CycleCount != 2 {
		t.Errorf("cycle count = %d, want 2", doc.CycleCount)
	}
}

func TestAutoTrigger_SummarizesAfterMinCycles(t *testing.T) {
	// WHAT: Reaching min_cycles fires a background summarization.
	// WHY: The steady-state loop publishes without any operator command.
	cfg := testConfig(t)
	cfg.Summary.MinCycles = 2

	svc := newTestService(t, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.CycleNow(ctx); err != nil {
			t.Fatalf("CycleNow %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if doc := svc.Report(ctx); !doc.NoData {
			if doc.CycleCount != 2 {
				t.Errorf("cycle count = %d, want 2", doc.CycleCount)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("report never published")
}

func TestService_WritesDailyArtifact(t *testing.T) {
	// WHAT: Each published report rebuilds the day's readable file.
	// WHY: The daily file is the user-facing record; it must carry every
	// report of the day with elapsed times anchored on the first.
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CycleNow(ctx); err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if _, err := svc.SummarizeNow(ctx); err != nil {
		t.Fatalf("SummarizeNow: %v", err)
	}

	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	path := svc.artifacts.Path(day)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "tester was reviewing information related to: condensed activity.") {
		t.Errorf("artifact missing prose: %q", text)
	}
	if !strings.Contains(text, "Total time since the first report: N/A.") {
		t.Errorf("first entry should render N/A: %q", text)
	}

	// A second report the same day rewrites the file with both entries.
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.CycleNow(ctx); err != nil {
		t.Fatalf("CycleNow: %v", err)
	}
	if _, err := svc.SummarizeNow(ctx); err != nil {
		t.Fatalf("SummarizeNow: %v", err)
	}

	content, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read artifact: %v", err)
	}
	text = string(content)
	if got := strings.Count(text, "was reviewing information related to"); got != 2 {
		t.Errorf("entries = %d, want 2: %q", got, text)
	}
	if got := strings.Count(text, "N/A"); got != 1 {
		t.Errorf("N/A count = %d, want 1 (only the day's first entry): %q", got, text)
	}
}
