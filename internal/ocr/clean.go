package ocr

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	queryPattern   = regexp.MustCompile(`\?.*$`)
	specialPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanText normalizes raw recognizer output for accumulation: URLs and
// trailing query strings go first (screen grabs are full of address bars),
// then punctuation noise, then whitespace runs collapse to single spaces.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = queryPattern.ReplaceAllString(text, "")
	text = specialPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
