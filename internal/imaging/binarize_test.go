package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage builds a uniform RGBA image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestBinarize(t *testing.T) {
	img := createTestImage(10, 10, color.White)
	// dark square in the middle
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			img.Set(x, y, color.Black)
		}
	}

	bin := Binarize(img, 127, false)
	if got := CountForeground(bin); got != 100-16 {
		t.Errorf("foreground = %d, want %d", got, 100-16)
	}

	inverted := Binarize(img, 127, true)
	if got := CountForeground(inverted); got != 16 {
		t.Errorf("inverted foreground = %d, want 16", got)
	}
}

func TestInvertIsInvolution(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	mask.Pix[mask.PixOffset(1, 1)] = 255

	Invert(Invert(mask))
	if got := CountForeground(mask); got != 1 {
		t.Errorf("double inversion changed the mask: foreground = %d", got)
	}
}

func TestCountForegroundEmpty(t *testing.T) {
	if got := CountForeground(image.NewGray(image.Rect(0, 0, 5, 5))); got != 0 {
		t.Errorf("empty mask foreground = %d", got)
	}
}
