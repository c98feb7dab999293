// Package capture obtains raw images of the monitored screen.
//
// Sources are black boxes to the pipeline: anything that can produce an
// image on demand qualifies. The production source grabs the primary
// display; tests plug in static or failing sources.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrNoDisplay means no active display was found to capture.
var ErrNoDisplay = errors.New("capture: no active display")

// Source produces a raw image on demand.
type Source interface {
	// Name identifies the source in logs and audit rows.
	Name() string

	// Capture obtains one image. A single call is bounded by the
	// underlying grab; no internal timeout is applied.
	Capture(ctx context.Context) (image.Image, error)
}

// Func adapts a plain function into a named Source.
func Func(name string, fn func(ctx context.Context) (image.Image, error)) Source {
	return funcSource{name: name, fn: fn}
}

type funcSource struct {
	name string
	fn   func(ctx context.Context) (image.Image, error)
}

func (s funcSource) Name() string { return s.name }

func (s funcSource) Capture(ctx context.Context) (image.Image, error) {
	return s.fn(ctx)
}

// Static returns a Source that always yields the same image. Used in tests
// and as a stand-in on headless hosts.
func Static(img image.Image) Source {
	return Func("static", func(context.Context) (image.Image, error) {
		if img == nil {
			return nil, fmt.Errorf("capture: static source has no image")
		}
		return img, nil
	})
}
