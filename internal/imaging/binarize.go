package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Binarize converts an image to a binary mask: grayscale conversion
// followed by a fixed-level threshold. Pixels with luminance >= level
// become foreground (255), the rest background (0). With invert set,
// the result is flipped.
func Binarize(img image.Image, level uint8, invert bool) *image.Gray {
	gray := imaging.Grayscale(img)
	bin := segment.Threshold(gray, level)
	if invert {
		return Invert(bin)
	}
	return bin
}

// Invert flips a binary mask in place and returns it.
func Invert(mask *image.Gray) *image.Gray {
	for i := range mask.Pix {
		mask.Pix[i] ^= 255
	}
	return mask
}

// CountForeground returns the number of foreground (nonzero) pixels in
// a mask.
func CountForeground(mask *image.Gray) int {
	count := 0
	bounds := mask.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := mask.PixOffset(bounds.Min.X, y)
		for _, p := range mask.Pix[offset : offset+bounds.Dx()] {
			if p != 0 {
				count++
			}
		}
	}
	return count
}
