package ocr

import (
	"strings"
	"unicode"
)

// Quality holds the gate thresholds for raw recognizer output. Screen grabs
// of UI chrome, icons, and anti-aliased fonts routinely produce character
// soup; the gate drops those cycles before they pollute the buffer.
type Quality struct {
	// MinPrintable is the minimum ratio of printable runes. Default: 0.5.
	MinPrintable float64
	// MinWordlike is the minimum ratio of word-like tokens. Default: 0.3.
	MinWordlike float64
}

func (q *Quality) defaults() {
	if q.MinPrintable <= 0 {
		q.MinPrintable = 0.5
	}
	if q.MinWordlike <= 0 {
		q.MinWordlike = 0.3
	}
}

// Usable reports whether raw recognizer output passes the gate.
func (q Quality) Usable(text string) bool {
	q.defaults()
	if strings.TrimSpace(text) == "" {
		return false
	}
	return printableRatio(text) >= q.MinPrintable && wordlikeRatio(text) >= q.MinWordlike
}

// printableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars < U+0020 (except \n\r\t), U+FFFD.
func printableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	// Replacement character
	if r == 0xFFFD {
		return true
	}
	// Control chars except whitespace
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the ratio of word-like tokens (length 2-15) to total tokens.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
