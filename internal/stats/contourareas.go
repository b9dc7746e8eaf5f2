package stats

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/detection"
	"github.com/imgtools/imgstats/internal/imaging"
	"github.com/imgtools/imgstats/internal/report"
)

// Pixel sources the contour writer can operate on.
const (
	ApplyToImage       = "image"
	ApplyToAnnotations = "annotations"
	ApplyToBoth        = "both"
)

// Policies for records that cannot supply the requested pixel data.
const (
	FormatActionSkip = "skip"
	FormatActionFail = "fail"
)

// DefaultThreshold is the binarization level used unless configured.
const DefaultThreshold = 127

// imageSource keys contours found in the image itself, as opposed to
// an annotation layer.
const imageSource = "image"

// ContourAreasOptions configures a ContourAreas writer.
type ContourAreasOptions struct {
	Output report.Writer

	// ApplyTo selects the pixels to binarize: the image file, the
	// segmentation annotation layers, or both.
	ApplyTo string

	// Invert flips the binary mask before contour detection.
	Invert bool

	// MinArea/MaxArea bound the recorded contour areas, inclusive on
	// both ends. Negative values leave the bound open.
	MinArea float64
	MaxArea float64

	// Threshold is the binarization level applied to image pixels.
	Threshold uint8

	// IncorrectFormatAction decides what happens when a record cannot
	// supply the requested pixel data: skip or fail.
	IncorrectFormatAction string

	Cache *imaging.Cache
	Log   *logrus.Entry
}

// ContourAreas binarizes image and/or annotation pixels, runs contour
// detection and records the size and bounding location of every
// contour within the configured area bounds, keyed by input file.
type ContourAreas struct {
	opts    ContourAreasOptions
	entries []contourEntry
}

type contourEntry struct {
	image     string
	source    string
	component detection.Component
}

// NewContourAreas creates the writer; call Init before use.
func NewContourAreas(opts ContourAreasOptions) *ContourAreas {
	return &ContourAreas{opts: opts}
}

func (w *ContourAreas) Name() string { return "contour-areas" }

func (w *ContourAreas) Accepts() []data.Domain {
	return []data.Domain{data.DomainClassification, data.DomainDetection, data.DomainSegmentation}
}

func (w *ContourAreas) Init() error {
	switch w.opts.ApplyTo {
	case ApplyToImage, ApplyToAnnotations, ApplyToBoth:
	case "":
		w.opts.ApplyTo = ApplyToImage
	default:
		return fmt.Errorf("unknown apply_to value %q", w.opts.ApplyTo)
	}

	switch w.opts.IncorrectFormatAction {
	case FormatActionSkip, FormatActionFail:
	case "":
		w.opts.IncorrectFormatAction = FormatActionSkip
	default:
		return fmt.Errorf("unknown incorrect_format_action %q", w.opts.IncorrectFormatAction)
	}

	w.entries = nil
	return nil
}

func (w *ContourAreas) Write(rec *data.Record) error {
	masks, err := w.masks(rec)
	if err != nil {
		if w.opts.IncorrectFormatAction == FormatActionFail {
			return err
		}
		w.opts.Log.Warningf("skipping record %q: %v", rec.Name, err)
		return nil
	}

	for _, m := range masks {
		for _, comp := range detection.Components(m.mask) {
			if !w.withinBounds(comp.Area) {
				continue
			}
			w.entries = append(w.entries, contourEntry{
				image:     rec.Name,
				source:    m.source,
				component: comp,
			})
		}
	}
	return nil
}

type namedMask struct {
	source string
	mask   *image.Gray
}

// masks binarizes the record's pixel sources per the apply_to setting.
// An error means the record cannot supply the requested data.
func (w *ContourAreas) masks(rec *data.Record) ([]namedMask, error) {
	var masks []namedMask

	if w.opts.ApplyTo == ApplyToImage || w.opts.ApplyTo == ApplyToBoth {
		if rec.Image == "" {
			return nil, fmt.Errorf("no image data")
		}
		img, err := w.opts.Cache.Load(rec.Image)
		if err != nil {
			return nil, err
		}
		masks = append(masks, namedMask{
			source: imageSource,
			mask:   imaging.Binarize(img, w.opts.Threshold, w.opts.Invert),
		})
	}

	if w.opts.ApplyTo == ApplyToAnnotations || w.opts.ApplyTo == ApplyToBoth {
		if rec.Domain != data.DomainSegmentation {
			return nil, fmt.Errorf("no annotation masks in %s record", rec.Domain)
		}
		layers, err := imaging.Layers(w.opts.Cache, rec)
		if err != nil {
			return nil, err
		}
		for _, label := range rec.SegLabels() {
			layer, ok := layers[label]
			if !ok {
				continue
			}
			if w.opts.Invert {
				layer = imaging.Invert(layer)
			}
			masks = append(masks, namedMask{source: label, mask: layer})
		}
	}

	return masks, nil
}

// withinBounds applies the inclusive area bounds; negative bounds are
// open.
func (w *ContourAreas) withinBounds(area float64) bool {
	if w.opts.MinArea >= 0 && area < w.opts.MinArea {
		return false
	}
	if w.opts.MaxArea >= 0 && area > w.opts.MaxArea {
		return false
	}
	return true
}

func (w *ContourAreas) Finalize() error {
	switch w.opts.Output.Format {
	case report.FormatCSV:
		return w.writeCSV()
	case report.FormatJSON:
		return w.writeJSON()
	}
	return fmt.Errorf("unhandled output format: %s", w.opts.Output.Format)
}

func (w *ContourAreas) writeCSV() error {
	rows := make([][]string, 0, len(w.entries))
	for _, e := range w.entries {
		rows = append(rows, []string{
			e.image,
			e.source,
			fmt.Sprintf("%d", e.component.X),
			fmt.Sprintf("%d", e.component.Y),
			fmt.Sprintf("%d", e.component.Width),
			fmt.Sprintf("%d", e.component.Height),
			formatFloat(e.component.Area),
		})
	}
	return w.opts.Output.WriteTable("", []string{"image", "source", "x", "y", "width", "height", "area"}, rows)
}

func (w *ContourAreas) writeJSON() error {
	out := make(map[string]map[string][]detection.Component)
	for _, e := range w.entries {
		if out[e.image] == nil {
			out[e.image] = make(map[string][]detection.Component)
		}
		out[e.image][e.source] = append(out[e.image][e.source], e.component)
	}
	return w.opts.Output.WriteJSON("", out)
}
