package capture

import (
	"context"
	"errors"
	"image"
	"testing"
)

func TestStatic_ReturnsImage(t *testing.T) {
	// WHAT: Static source yields the image it was built with.
	// WHY: Tests and headless hosts rely on it as a drop-in source.
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src := Static(img)

	if src.Name() != "static" {
		t.Fatalf("Name = %q, want 'static'", src.Name())
	}
	got, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got != image.Image(img) {
		t.Fatal("Capture: returned a different image")
	}
}

func TestStatic_NilImage(t *testing.T) {
	// WHAT: Static with nil image fails instead of handing nil downstream.
	src := Static(nil)
	if _, err := src.Capture(context.Background()); err == nil {
		t.Fatal("Capture: expected error for nil image")
	}
}

func TestFunc_PropagatesError(t *testing.T) {
	// WHAT: Func sources pass their error through unwrapped.
	// WHY: The scheduler matches on capture errors to classify the cycle.
	errGrab := errors.New("grab failed")
	src := Func("broken", func(context.Context) (image.Image, error) {
		return nil, errGrab
	})

	if src.Name() != "broken" {
		t.Fatalf("Name = %q, want 'broken'", src.Name())
	}
	_, err := src.Capture(context.Background())
	if !errors.Is(err, errGrab) {
		t.Fatalf("Capture: got %v, want %v", err, errGrab)
	}
}

func TestScreen_CancelledContext(t *testing.T) {
	// WHAT: A cancelled context stops the grab before touching the display.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewScreen(0)
	if _, err := src.Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Capture: got %v, want context.Canceled", err)
	}
}

func TestNewScreen_NegativeIndex(t *testing.T) {
	// WHAT: Negative display indexes fall back to the primary display.
	src := NewScreen(-3)
	if src.display != 0 {
		t.Fatalf("display = %d, want 0", src.display)
	}
}
