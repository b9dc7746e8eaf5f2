package stats

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/detection"
	"github.com/imgtools/imgstats/internal/imaging"
	"github.com/imgtools/imgstats/internal/report"
)

// writeBlobPNG writes a white image with black rectangles and returns
// its path.
func writeBlobPNG(t *testing.T, dir, name string, width, height int, blobs ...image.Rectangle) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for _, b := range blobs {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func runContourAreas(t *testing.T, opts ContourAreasOptions, records ...*data.Record) (map[string]map[string][]detection.Component, error) {
	t.Helper()
	var buf bytes.Buffer
	opts.Output = report.Writer{Format: report.FormatJSON, Stdout: &buf}
	if opts.Log == nil {
		opts.Log = testLog()
	}
	if opts.Cache == nil {
		opts.Cache = imaging.NewCache()
	}

	w := NewContourAreas(opts)
	require.NoError(t, w.Init())
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	require.NoError(t, w.Finalize())

	var out map[string]map[string][]detection.Component
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out, nil
}

func imageRecord(name, path string) *data.Record {
	return &data.Record{
		Domain: data.DomainClassification,
		Name:   name,
		Source: "/data/" + name,
		Width:  50, Height: 50,
		Image: path,
		Label: "whatever",
	}
}

func TestContourAreasDetectsBlobs(t *testing.T) {
	dir := t.TempDir()
	path := writeBlobPNG(t, dir, "img.png", 50, 50,
		image.Rect(5, 5, 9, 9),    // area 16
		image.Rect(20, 20, 30, 25)) // area 50

	// dark blobs become foreground via invert
	out, err := runContourAreas(t, ContourAreasOptions{
		MinArea: -1, MaxArea: -1,
		Threshold: DefaultThreshold,
		Invert:    true,
	}, imageRecord("img.png", path))
	require.NoError(t, err)

	comps := out["img.png"]["image"]
	require.Len(t, comps, 2)
	assert.Equal(t, 16.0, comps[0].Area)
	assert.Equal(t, 50.0, comps[1].Area)
	assert.Equal(t, 5, comps[0].X)
	assert.Equal(t, 5, comps[0].Y)
	assert.Equal(t, 4, comps[0].Width)
	assert.Equal(t, 4, comps[0].Height)
}

func TestContourAreasInclusiveBounds(t *testing.T) {
	dir := t.TempDir()
	path := writeBlobPNG(t, dir, "img.png", 50, 50,
		image.Rect(5, 5, 9, 9),    // area 16
		image.Rect(20, 20, 30, 25)) // area 50

	tests := []struct {
		name     string
		min, max float64
		want     int
	}{
		{"min exactly at area keeps it", 16, -1, 2},
		{"just above min excludes it", 17, -1, 1},
		{"max exactly at area keeps it", -1, 50, 2},
		{"just below max excludes it", -1, 49, 1},
		{"band keeps both", 16, 50, 2},
		{"band excludes both", 17, 49, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runContourAreas(t, ContourAreasOptions{
				MinArea: tt.min, MaxArea: tt.max,
				Threshold: DefaultThreshold,
				Invert:    true,
			}, imageRecord("img.png", path))
			require.NoError(t, err)
			assert.Len(t, out["img.png"]["image"], tt.want)
		})
	}
}

func TestContourAreasAnnotations(t *testing.T) {
	dir := t.TempDir()
	catPath := writeMaskPNG(t, dir, "cat.png", 10, 10, 30)

	out, err := runContourAreas(t, ContourAreasOptions{
		ApplyTo: ApplyToAnnotations,
		MinArea: -1, MaxArea: -1,
		Threshold: DefaultThreshold,
	}, segmentationRecord("img.png", 10, 10, map[string]string{"cat": catPath}))
	require.NoError(t, err)

	comps := out["img.png"]["cat"]
	require.Len(t, comps, 1)
	assert.Equal(t, 30.0, comps[0].Area)
}

func TestContourAreasSkipsIncompatibleRecords(t *testing.T) {
	log, captured := captureLog(t)
	out, err := runContourAreas(t, ContourAreasOptions{
		MinArea: -1, MaxArea: -1,
		Threshold: DefaultThreshold,
		Log:       log,
	}, &data.Record{Domain: data.DomainClassification, Name: "no-image.png", Label: "cat"})
	require.NoError(t, err, "skip policy must not fail the run")
	assert.Empty(t, out)
	assert.NotEmpty(t, captured.messages)
}

func TestContourAreasFailAction(t *testing.T) {
	_, err := runContourAreas(t, ContourAreasOptions{
		MinArea: -1, MaxArea: -1,
		Threshold:             DefaultThreshold,
		IncorrectFormatAction: FormatActionFail,
	}, &data.Record{Domain: data.DomainClassification, Name: "no-image.png", Label: "cat"})
	assert.Error(t, err)
}

func TestContourAreasInitValidation(t *testing.T) {
	w := NewContourAreas(ContourAreasOptions{
		Output:  report.Writer{Format: report.FormatCSV},
		ApplyTo: "bogus",
		Log:     testLog(),
	})
	assert.Error(t, w.Init())

	w = NewContourAreas(ContourAreasOptions{
		Output:                report.Writer{Format: report.FormatCSV},
		IncorrectFormatAction: "explode",
		Log:                   testLog(),
	})
	assert.Error(t, w.Init())
}

func TestContourAreasCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeBlobPNG(t, dir, "img.png", 20, 20, image.Rect(2, 2, 6, 6))

	var buf bytes.Buffer
	w := NewContourAreas(ContourAreasOptions{
		Output:    report.Writer{Format: report.FormatCSV, Stdout: &buf},
		MinArea:   -1,
		MaxArea:   -1,
		Threshold: DefaultThreshold,
		Invert:    true,
		Cache:     imaging.NewCache(),
		Log:       testLog(),
	})
	require.NoError(t, w.Init())
	require.NoError(t, w.Write(imageRecord("img.png", path)))
	require.NoError(t, w.Finalize())

	assert.Contains(t, buf.String(), "image,source,x,y,width,height,area")
	assert.Contains(t, buf.String(), "img.png,image,2,2,4,4,16.000000")
}
