package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

// renderText draws a line of text on a white background, roughly what a
// screen region with black-on-white UI text looks like.
func renderText(t *testing.T, text string, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, h/2),
	}
	d.DrawString(text)
	return img
}

func TestTesseract_RecognizesRenderedText(t *testing.T) {
	// WHAT: A rendered sentence comes back through the full chain.
	// WHY: Exercises preprocess, recognition, gate, and cleanup together.
	ensureTesseractAvailable(t)

	img := renderText(t, "Hello vigil monitor", 260, 60)
	ext := NewTesseract(TesseractConfig{})

	got, err := ext.ExtractText(context.Background(), img)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	lower := strings.ToLower(got)
	if !strings.Contains(lower, "hello") || !strings.Contains(lower, "vigil") {
		t.Fatalf("unexpected recognition: %q", got)
	}
}

func TestTesseract_BlankImage(t *testing.T) {
	// WHAT: A blank screen yields ErrNoText, not a fake success.
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 120, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	ext := NewTesseract(TesseractConfig{})
	_, err := ext.ExtractText(context.Background(), img)
	if err == nil {
		t.Fatal("ExtractText: expected error for blank image")
	}
}

func TestTesseract_CancelledContext(t *testing.T) {
	// WHAT: A cancelled context short-circuits before recognition starts.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := NewTesseract(TesseractConfig{})
	if _, err := ext.ExtractText(ctx, image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Fatal("ExtractText: expected context error")
	}
}

func TestFunc_AdapterIdentity(t *testing.T) {
	// WHAT: The Func adapter surfaces its name and passes the image through.
	called := false
	ext := Func("fake", func(_ context.Context, _ image.Image) (string, error) {
		called = true
		return "text", nil
	})

	if ext.Name() != "fake" {
		t.Fatalf("Name = %q, want 'fake'", ext.Name())
	}
	got, err := ext.ExtractText(context.Background(), nil)
	if err != nil || got != "text" || !called {
		t.Fatalf("ExtractText = %q, %v (called=%v)", got, err, called)
	}
}
