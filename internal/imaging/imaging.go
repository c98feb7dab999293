// Package imaging prepares screen grabs for text recognition.
//
// Screen content is rendered text on flat backgrounds; recognition quality
// improves measurably with grayscale conversion, contrast stretching around
// the mean, a sharpen pass, and upscaling. The chain is deterministic so
// identical grabs produce identical recognizer input.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Options tunes the preprocessing chain.
type Options struct {
	// Contrast is the stretch factor around the mean luminance.
	// 1.0 leaves the image unchanged. Default: 2.0.
	Contrast float64
	// Scale is the integer upscale factor. Default: 2.
	Scale int
	// Sharpen disables the sharpen pass when false is desired; the zero
	// value enables it (NoSharpen inverts so defaults stay useful).
	NoSharpen bool
}

func (o *Options) defaults() {
	if o.Contrast <= 0 {
		o.Contrast = 2.0
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
}

// Preprocess runs the full chain and returns the recognizer-ready image.
func Preprocess(img image.Image, opts Options) *image.Gray {
	opts.defaults()

	gray := Grayscale(img)
	gray = StretchContrast(gray, opts.Contrast)
	if !opts.NoSharpen {
		gray = Sharpen(gray)
	}
	if opts.Scale > 1 {
		gray = Upscale(gray, opts.Scale)
	}
	return gray
}

// Grayscale converts any image to 8-bit grayscale.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// StretchContrast scales each pixel's distance from the mean luminance by
// factor, clamping to [0, 255]. Factor 1.0 is the identity.
func StretchContrast(gray *image.Gray, factor float64) *image.Gray {
	if factor == 1.0 {
		return gray
	}

	var sum int64
	for _, p := range gray.Pix {
		sum += int64(p)
	}
	if len(gray.Pix) == 0 {
		return gray
	}
	mean := float64(sum) / float64(len(gray.Pix))

	out := image.NewGray(gray.Bounds())
	for i, p := range gray.Pix {
		v := mean + factor*(float64(p)-mean)
		out.Pix[i] = clamp(v)
	}
	return out
}

// sharpenKernel is a standard 3x3 sharpen: strong center, negative ring,
// normalized by 16.
var sharpenKernel = [9]int{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

const sharpenScale = 16

// Sharpen applies a 3x3 sharpen convolution. Border pixels are copied
// unchanged.
func Sharpen(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	copy(out.Pix, gray.Pix)

	if w < 3 || h < 3 {
		return out
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var acc int
			k := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*gray.Stride + (x - 1)
				for dx := 0; dx < 3; dx++ {
					acc += int(gray.Pix[row+dx]) * sharpenKernel[k]
					k++
				}
			}
			out.Pix[y*out.Stride+x] = clamp(float64(acc) / sharpenScale)
		}
	}
	return out
}

// Upscale resizes by an integer factor with Catmull-Rom interpolation.
func Upscale(gray *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return gray
	}
	b := gray.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), gray, b, xdraw.Src, nil)
	return dst
}

// EncodePNG serializes an image for recognizers that consume encoded bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
