// Package imaging verifies downloaded images and renders the placeholder
// poster used when no source for an image could be fetched.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"catalog-ops/pkg/fsx"
)

const (
	Width  = 600
	Height = 900

	// MaxTitleRunes is the longest title drawn before it is cut and suffixed with "...".
	MaxTitleRunes = 20

	textScale    = 3
	shadowOffset = 2
	noiseRange   = 10
	gradientSpan = 40
)

var baseColor = color.RGBA{R: 16, G: 16, B: 24, A: 255}

// TruncateTitle shortens title for display on the placeholder.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	r := []rune(title)
	if len(r) > MaxTitleRunes {
		return string(r[:MaxTitleRunes]) + "..."
	}
	return title
}

// Placeholder renders a dark poster with a soft vertical gradient, light
// noise and the (truncated) title centered in white with a drop shadow.
// rng drives the noise; nil uses a fixed seed.
func Placeholder(title string, rng *rand.Rand) *image.RGBA {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))

	for y := 0; y < Height; y++ {
		g := float64(y) / float64(Height) * gradientSpan
		for x := 0; x < Width; x++ {
			n := rng.Intn(2*noiseRange+1) - noiseRange
			img.SetRGBA(x, y, color.RGBA{
				R: clamp(float64(baseColor.R) + g + float64(n)),
				G: clamp(float64(baseColor.G) + g + float64(n)),
				B: clamp(float64(baseColor.B) + g*1.5 + float64(n)),
				A: 255,
			})
		}
	}

	text := TruncateTitle(title)
	if text == "" {
		return img
	}

	mask := textMask(text)
	mb := mask.Bounds()
	x0 := (Width - mb.Dx()) / 2
	y0 := (Height - mb.Dy()) / 2

	shadow := image.Rect(x0+shadowOffset, y0+shadowOffset, x0+shadowOffset+mb.Dx(), y0+shadowOffset+mb.Dy())
	draw.DrawMask(img, shadow, image.NewUniform(color.RGBA{A: 128}), image.Point{}, mask, mb.Min, draw.Over)

	fg := image.Rect(x0, y0, x0+mb.Dx(), y0+mb.Dy())
	draw.DrawMask(img, fg, image.White, image.Point{}, mask, mb.Min, draw.Over)

	return img
}

// textMask draws text with the built-in bitmap face and scales it up.
func textMask(text string) *image.Alpha {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height

	small := image.NewAlpha(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	big := image.NewAlpha(image.Rect(0, 0, w*textScale, h*textScale))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Src, nil)
	return big
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// PlaceholderPath returns the path a placeholder for path is written to.
// Formats that cannot be encoded here get a .png sibling.
func PlaceholderPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
}

// Encode writes img in the format implied by ext.
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".png":
		return png.Encode(w, img)
	}
	return fmt.Errorf("imaging: cannot encode %q", ext)
}

// WritePlaceholder renders the placeholder for title and writes it next to
// path (see PlaceholderPath). It returns the path actually written.
func WritePlaceholder(path, title string, rng *rand.Rand) (string, error) {
	out := PlaceholderPath(path)
	var buf bytes.Buffer
	if err := Encode(&buf, Placeholder(title, rng), filepath.Ext(out)); err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write placeholder: %w", err)
	}
	return out, nil
}
