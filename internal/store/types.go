// CLAUDE:SUMMARY Store data types: CycleRecord and ReportRecord, plus cycle status values.
package store

// Cycle outcome values recorded in cycle_log. Summarization attempts land
// in the same log with their own statuses; skipped marks a tick that found
// an on-demand cycle already running.
const (
	StatusOK             = "ok"
	StatusCaptureError   = "capture_error"
	StatusExtractError   = "extract_error"
	StatusEmpty          = "empty"
	StatusSkipped        = "skipped"
	StatusSummarizeOK    = "summarize_ok"
	StatusSummarizeError = "summarize_error"
)

// CycleRecord is the outcome of one capture cycle.
type CycleRecord struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Status     string `json:"status"`
	Chars      int    `json:"chars"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	StartedAt  int64  `json:"started_at"` // ms
}

// ReportRecord is one published report.
type ReportRecord struct {
	ID          string `json:"id"`
	Sequence    int64  `json:"sequence"`
	Summary     string `json:"summary"`
	CycleCount  int    `json:"cycle_count"`
	WindowStart int64  `json:"window_start"` // ms
	WindowEnd   int64  `json:"window_end"`   // ms
	GeneratedAt int64  `json:"generated_at"` // ms
}

// CycleStats holds aggregate cycle counters grouped by status.
type CycleStats struct {
	Total   int64            `json:"total"`
	ByState map[string]int64 `json:"by_status"`
}
