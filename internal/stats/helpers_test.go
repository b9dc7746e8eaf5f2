package stats

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
)

// testLog returns a logger that discards everything.
func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("logger", "test")
}

// captureLog returns a logger recording warnings and above into hook.
func captureLog(t *testing.T) (*logrus.Entry, *capturedEntries) {
	t.Helper()
	captured := &capturedEntries{}
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.AddHook(captured)
	return l.WithField("logger", "test"), captured
}

type capturedEntries struct {
	messages []string
}

func (c *capturedEntries) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel}
}

func (c *capturedEntries) Fire(e *logrus.Entry) error {
	c.messages = append(c.messages, e.Message)
	return nil
}

func classificationRecord(name, label string) *data.Record {
	return &data.Record{Domain: data.DomainClassification, Name: name, Source: "/data/" + name, Label: label}
}

func detectionRecord(name string, objects ...data.Object) *data.Record {
	return &data.Record{
		Domain: data.DomainDetection,
		Name:   name,
		Source: "/data/" + name,
		Width:  100, Height: 100,
		Objects: objects,
	}
}

func labeledObject(label string, w, h int) data.Object {
	return data.Object{Width: w, Height: h, Metadata: map[string]string{"type": label}}
}

// writeMaskPNG writes a mask with the given number of foreground
// pixels (filled row-major from the top-left) and returns its path.
func writeMaskPNG(t *testing.T, dir, name string, width, height, foreground int) string {
	t.Helper()
	mask := image.NewGray(image.Rect(0, 0, width, height))
	for i := 0; i < foreground; i++ {
		mask.SetGray(i%width, i/width, color.Gray{Y: 255})
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, mask); err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	return path
}

func segmentationRecord(name string, width, height int, layers map[string]string) *data.Record {
	return &data.Record{
		Domain: data.DomainSegmentation,
		Name:   name,
		Source: "/data/" + name,
		Width:  width, Height: height,
		Layers: layers,
	}
}
