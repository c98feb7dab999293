// CLAUDE:SUMMARY Prose, HTML, and daily-file rendering of report documents.
package vigil

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hazyhaar/vigil/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// currentUsername resolves the name shown in prose renderings. Falls back
// through the environment when the OS lookup fails (headless sessions).
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		return v
	}
	return "User"
}

// prose renders one report as the paragraph the daily file is made of.
// firstAt anchors the elapsed time; the first report renders "N/A".
func prose(username, summary string, generatedAt, firstAt time.Time) string {
	elapsed := "N/A"
	if !firstAt.IsZero() && generatedAt.After(firstAt) {
		elapsed = generatedAt.Sub(firstAt).Round(time.Second).String()
	}
	return fmt.Sprintf("On %s,\n %s was reviewing information related to: %s.\nTotal time since the first report: %s.",
		generatedAt.Format(timestampLayout), username, summary, elapsed)
}

// renderText renders a report document as plain prose. The no-data sentinel
// renders as its summary line alone.
func renderText(doc ReportDoc, username string) string {
	if doc.NoData {
		return doc.Summary
	}
	return prose(username, doc.Summary, doc.GeneratedAt, doc.FirstReportAt)
}

// renderHTML renders the prose through goldmark.
func renderHTML(doc ReportDoc, username string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(renderText(doc, username)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// renderDay builds the content of one readable daily file from that day's
// history rows, oldest first. Elapsed times anchor on the day's first row.
func renderDay(recs []*store.ReportRecord, username string) string {
	if len(recs) == 0 {
		return ""
	}
	firstAt := time.UnixMilli(recs[0].GeneratedAt)

	entries := make([]string, 0, len(recs))
	for _, rec := range recs {
		at := time.UnixMilli(rec.GeneratedAt)
		entries = append(entries, prose(username, rec.Summary, at, firstAt))
	}
	return strings.Join(entries, "\n")
}
