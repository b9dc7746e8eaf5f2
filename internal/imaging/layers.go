package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/imgtools/imgstats/internal/data"
)

// paletteTolerance is the maximum RGB distance between a pixel and a
// palette color for the pixel to be assigned to that label. Pixels
// further away from every palette color count as background.
const paletteTolerance = 0.05

var grayWhite = color.Gray{Y: 255}

// Layers materializes the per-label binary masks of a segmentation
// record. Records either reference one mask file per label, or a
// single color-indexed mask plus a label-to-color palette; both forms
// come out as label -> *image.Gray with foreground pixels set to 255.
//
// Masks are freshly built per call; only the underlying image files
// are cached.
func Layers(cache *Cache, rec *data.Record) (map[string]*image.Gray, error) {
	if rec.Domain != data.DomainSegmentation {
		return nil, fmt.Errorf("record %q is not a segmentation record", rec.Name)
	}

	if len(rec.Layers) > 0 {
		layers := make(map[string]*image.Gray, len(rec.Layers))
		for label, path := range rec.Layers {
			img, err := cache.Load(path)
			if err != nil {
				return nil, fmt.Errorf("layer %q: %w", label, err)
			}
			// any nonzero luminance counts as foreground
			layers[label] = Binarize(img, 1, false)
		}
		return layers, nil
	}

	return paletteLayers(cache, rec)
}

// paletteLayers splits a color-indexed mask into per-label masks by
// nearest-color matching against the record's palette.
func paletteLayers(cache *Cache, rec *data.Record) (map[string]*image.Gray, error) {
	labels := make([]string, 0, len(rec.Palette))
	colors := make([]colorful.Color, 0, len(rec.Palette))
	for label, hex := range rec.Palette {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("palette entry %q: %w", label, err)
		}
		labels = append(labels, label)
		colors = append(colors, c)
	}

	img, err := cache.Load(rec.Mask)
	if err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}

	bounds := img.Bounds()
	layers := make(map[string]*image.Gray, len(labels))
	for _, label := range labels {
		layers[label] = image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixel := colorful.Color{
				R: float64(r) / 65535.0,
				G: float64(g) / 65535.0,
				B: float64(b) / 65535.0,
			}

			best := -1
			bestDist := paletteTolerance
			for i, c := range colors {
				if d := pixel.DistanceRgb(c); d <= bestDist {
					best = i
					bestDist = d
				}
			}
			if best >= 0 {
				layers[labels[best]].SetGray(x-bounds.Min.X, y-bounds.Min.Y, grayWhite)
			}
		}
	}

	return layers, nil
}

// ParseHexColor parses a palette color in "#RRGGBB" or "RRGGBB" form.
func ParseHexColor(hex string) (colorful.Color, error) {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}
