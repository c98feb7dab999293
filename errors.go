// CLAUDE:SUMMARY Sentinel errors for the vigil service: pipeline failure taxonomy plus busy and no-data states.
package vigil

import "errors"

// ErrCaptureFailed is returned when the screen grab fails.
var ErrCaptureFailed = errors.New("vigil: capture failed")

// ErrExtractionFailed is returned when recognition fails on a captured image.
var ErrExtractionFailed = errors.New("vigil: text extraction failed")

// ErrSummarizeFailed is returned when a summarization attempt fails. Timeouts
// and an open circuit breaker both map here.
var ErrSummarizeFailed = errors.New("vigil: summarization failed")

// ErrBusy is returned when an on-demand cycle or summarization overlaps one
// already running.
var ErrBusy = errors.New("vigil: already running")

// ErrNothingToSummarize is returned by SummarizeNow when the buffer is empty.
var ErrNothingToSummarize = errors.New("vigil: nothing to summarize")
