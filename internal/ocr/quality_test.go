package ocr

import "testing"

func TestPrintableRatio_Normal(t *testing.T) {
	// WHAT: Normal text has high printable ratio.
	ratio := printableRatio("This is a normal sentence with standard characters.")
	if ratio < 0.95 {
		t.Errorf("printable ratio = %f, want > 0.95", ratio)
	}
}

func TestPrintableRatio_Garbage(t *testing.T) {
	// WHAT: PUA and control chars produce low printable ratio.
	// WHY: Recognizing icons and anti-aliased chrome yields this, and it
	// must never reach the accumulation buffer.
	garbage := "abcdefghi\x01\x02\x03\x04\x05"
	ratio := printableRatio(garbage)
	if ratio >= 0.85 {
		t.Errorf("printable ratio = %f, want < 0.85", ratio)
	}
}

func TestWordlikeRatio_Normal(t *testing.T) {
	// WHAT: Normal phrases have high wordlike ratio.
	ratio := wordlikeRatio("This is a normal sentence with standard words inside")
	if ratio < 0.70 {
		t.Errorf("wordlike ratio = %f, want > 0.70", ratio)
	}
}

func TestWordlikeRatio_SingleChar(t *testing.T) {
	// WHAT: Single-char tokens produce low wordlike ratio.
	// WHY: Detects character-soup recognition of icon grids.
	ratio := wordlikeRatio("a b c d e f g h i j k l")
	if ratio >= 0.40 {
		t.Errorf("wordlike ratio = %f, want < 0.40", ratio)
	}
}

func TestUsable_Defaults(t *testing.T) {
	// WHAT: The zero-value gate accepts prose and rejects blank and soupy
	// output.
	var q Quality
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"prose", "reviewing the quarterly report in the browser", true},
		{"blank", "   ", false},
		{"single chars", "a b c d e f g h i j", false},
		{"pua soup", "", false},
	}
	for _, tc := range cases {
		if got := q.Usable(tc.text); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUsable_CustomThresholds(t *testing.T) {
	// WHAT: Tight thresholds reject text the defaults would pass.
	q := Quality{MinPrintable: 0.99, MinWordlike: 0.99}
	if q.Usable("ok text but with x y z singles") {
		t.Error("Usable = true, want false under tight thresholds")
	}
}
