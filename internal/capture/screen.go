package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Screen captures one display. The pipeline monitors a single display, so
// the index is fixed at construction (0 = primary).
type Screen struct {
	display int
}

// NewScreen returns a Source for the given display index.
func NewScreen(display int) *Screen {
	if display < 0 {
		display = 0
	}
	return &Screen{display: display}
}

func (s *Screen) Name() string { return "screen" }

// Capture grabs the configured display as an RGBA image.
func (s *Screen) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplay
	}
	if s.display >= n {
		return nil, fmt.Errorf("capture: display %d out of range (%d active)", s.display, n)
	}

	bounds := screenshot.GetDisplayBounds(s.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", s.display, err)
	}
	return img, nil
}
