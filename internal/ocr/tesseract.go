package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/hazyhaar/vigil/internal/imaging"
)

// TesseractConfig tunes the production extractor.
type TesseractConfig struct {
	// Language is the Tesseract language code. Default: "eng".
	Language string
	// Quality gates raw recognizer output before cleanup.
	Quality Quality
	// Preprocess tunes the imaging chain applied before recognition.
	Preprocess imaging.Options
	// MinConfidence rejects recognitions whose mean word confidence falls
	// below this value (0..1). 0 disables the check.
	MinConfidence float64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *TesseractConfig) defaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Tesseract recognizes text with a per-call gosseract client. Clients are
// not safe for concurrent use, and the scheduler never overlaps cycles, so
// one client per call keeps the lifecycle trivial.
type Tesseract struct {
	cfg           TesseractConfig
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs the production extractor.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	cfg.defaults()
	return &Tesseract{
		cfg:           cfg,
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

// ExtractText preprocesses the image, recognizes it, and returns cleaned
// text. ErrNoText covers every "ran fine, nothing usable" outcome: blank
// recognition, failed quality gate, low confidence, or text that cleanup
// reduced to nothing.
func (t *Tesseract) ExtractText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prepared := imaging.Preprocess(img, t.cfg.Preprocess)
	data, err := imaging.EncodePNG(prepared)
	if err != nil {
		return "", fmt.Errorf("prepare image: %w", err)
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(t.cfg.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	raw, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoText
	}

	if conf := meanConfidence(c); t.cfg.MinConfidence > 0 && conf > 0 && conf < t.cfg.MinConfidence {
		t.cfg.Logger.Debug("ocr: low confidence recognition dropped",
			"confidence", conf, "min", t.cfg.MinConfidence)
		return "", ErrNoText
	}

	if !t.cfg.Quality.Usable(raw) {
		t.cfg.Logger.Debug("ocr: recognition failed quality gate", "chars", len(raw))
		return "", ErrNoText
	}

	cleaned := CleanText(raw)
	if cleaned == "" {
		return "", ErrNoText
	}
	return cleaned, nil
}

// meanConfidence averages per-word confidence from the recognizer, scaled
// to 0..1. Returns 0 when boxes are unavailable.
func meanConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
