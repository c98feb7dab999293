// Package ocr turns captured images into usable text.
//
// The pipeline treats extraction as a black box: image in, recognized text
// out, or a failure. The production extractor chains image preprocessing,
// Tesseract recognition, a garbage gate, and text cleanup; recognized text
// that survives all of it is what accumulates toward the next report.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrNoText means recognition ran but produced nothing usable: an empty
// result, or output the quality gate rejected as garbage.
var ErrNoText = errors.New("ocr: no usable text")

// Extractor converts a raw image into recognized text.
type Extractor interface {
	// Name identifies the extractor in logs and audit rows.
	Name() string

	// ExtractText recognizes text in the image. It returns ErrNoText when
	// recognition succeeds technically but yields nothing usable.
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

// Func adapts a plain function into a named Extractor.
func Func(name string, fn func(ctx context.Context, img image.Image) (string, error)) Extractor {
	return funcExtractor{name: name, fn: fn}
}

type funcExtractor struct {
	name string
	fn   func(ctx context.Context, img image.Image) (string, error)
}

func (e funcExtractor) Name() string { return e.name }

func (e funcExtractor) ExtractText(ctx context.Context, img image.Image) (string, error) {
	return e.fn(ctx, img)
}
