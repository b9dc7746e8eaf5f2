package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/imaging"
	"github.com/imgtools/imgstats/internal/report"
)

// DefaultAllLabel is the key used for the combined histogram unless
// configured otherwise.
const DefaultAllLabel = "ALL"

// combinedKey is the internal accumulator key for the combined
// histogram; the user-facing label is resolved at output time so it
// can never collide with a real label.
const combinedKey = ""

// AreaHistOptions configures an AreaHist writer.
type AreaHistOptions struct {
	Output   report.Writer
	LabelKey string

	// NumBins is the number of equal-width bins per histogram.
	NumBins int

	// ForceBBox uses the bounding box area even when a polygon is
	// present (detection domain only).
	ForceBBox bool

	// Normalized divides areas by the image pixel area, binning over
	// [0, 1] instead of [0, max observed].
	Normalized bool

	// AllLabel is the label for the combined histogram.
	AllLabel string

	Cache *imaging.Cache
	Log   *logrus.Entry
}

// AreaHist bins annotation areas (bbox or polygon for detection,
// foreground pixel count for segmentation) into one histogram per
// label plus a combined one.
type AreaHist struct {
	opts   AreaHistOptions
	values map[string][]float64
}

type histogram struct {
	counts []int
	edges  []float64
}

// NewAreaHist creates the writer; call Init before use.
func NewAreaHist(opts AreaHistOptions) *AreaHist {
	return &AreaHist{opts: opts}
}

func (w *AreaHist) Name() string { return "area-histogram" }

func (w *AreaHist) Accepts() []data.Domain {
	return []data.Domain{data.DomainDetection, data.DomainSegmentation}
}

func (w *AreaHist) Init() error {
	if w.opts.LabelKey == "" {
		w.opts.LabelKey = data.DefaultLabelKey
	}
	if w.opts.NumBins <= 0 {
		w.opts.NumBins = 20
	}
	if w.opts.AllLabel == "" {
		w.opts.AllLabel = DefaultAllLabel
	}
	w.values = make(map[string][]float64)
	return nil
}

func (w *AreaHist) Write(rec *data.Record) error {
	imgArea := rec.PixelArea()

	switch rec.Domain {
	case data.DomainDetection:
		for i := range rec.Objects {
			// unlabeled objects still count toward the combined histogram
			label, _ := rec.Objects[i].Label(w.opts.LabelKey)
			area := rec.Objects[i].Area(w.opts.ForceBBox)
			w.append(label, w.scale(area, imgArea, rec.Name))
		}
	case data.DomainSegmentation:
		layers, err := imaging.Layers(w.opts.Cache, rec)
		if err != nil {
			return err
		}
		for _, label := range rec.SegLabels() {
			layer, ok := layers[label]
			if !ok {
				continue
			}
			area := float64(imaging.CountForeground(layer))
			w.append(label, w.scale(area, imgArea, rec.Name))
		}
	}
	return nil
}

func (w *AreaHist) scale(area, imgArea float64, name string) float64 {
	if area <= 0 {
		w.opts.Log.Warningf("record %q: invalid area %s", name, formatFloat(area))
	}
	if w.opts.Normalized && imgArea > 0 {
		return area / imgArea
	}
	return area
}

func (w *AreaHist) append(label string, value float64) {
	w.values[combinedKey] = append(w.values[combinedKey], value)
	if label != combinedKey {
		w.values[label] = append(w.values[label], value)
	}
}

func (w *AreaHist) Finalize() error {
	keys := make([]string, 0, len(w.values))
	for k := range w.values {
		if k != combinedKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	histograms := make(map[string]histogram, len(w.values))
	for k, values := range w.values {
		histograms[k] = w.histogram(values)
	}

	// combined histogram first
	ordered := append([]string{combinedKey}, keys...)
	if _, ok := histograms[combinedKey]; !ok {
		histograms[combinedKey] = w.histogram(nil)
	}
	allLabel := w.uniqueAllLabel(keys)

	switch w.opts.Output.Format {
	case report.FormatText:
		return w.writeText(ordered, histograms, allLabel)
	case report.FormatCSV:
		return w.writeCSV(ordered, histograms, allLabel)
	case report.FormatJSON:
		return w.writeJSON(ordered, histograms, allLabel)
	}
	return fmt.Errorf("unhandled output format: %s", w.opts.Output.Format)
}

// histogram bins values into NumBins equal-width bins over
// [0, max observed], or [0, 1] when normalized.
func (w *AreaHist) histogram(values []float64) histogram {
	bins := w.opts.NumBins

	hi := 1.0
	if !w.opts.Normalized {
		hi = 0
		for _, v := range values {
			if v > hi {
				hi = v
			}
		}
		if hi <= 0 {
			hi = 1
		}
	}
	width := hi / float64(bins)

	counts := make([]int, bins)
	for _, v := range values {
		idx := int(v / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = float64(i) * width
	}
	return histogram{counts: counts, edges: edges}
}

// uniqueAllLabel wraps the configured all-label in underscores until
// it no longer collides with an observed label.
func (w *AreaHist) uniqueAllLabel(labels []string) string {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	result := w.opts.AllLabel
	for seen[result] {
		result = "_" + result + "_"
	}
	return result
}

func (w *AreaHist) labelFor(key, allLabel string) string {
	if key == combinedKey {
		return allLabel
	}
	return key
}

func (w *AreaHist) writeText(keys []string, histograms map[string]histogram, allLabel string) error {
	const barWidth = 40

	var lines []string
	for _, k := range keys {
		h := histograms[k]
		maxCount := 0
		for _, c := range h.counts {
			if c > maxCount {
				maxCount = c
			}
		}

		lines = append(lines, w.labelFor(k, allLabel)+":")
		for i, c := range h.counts {
			bar := ""
			if maxCount > 0 {
				bar = strings.Repeat("*", c*barWidth/maxCount)
			}
			lines = append(lines, fmt.Sprintf("  [%s, %s) %6d %s",
				formatFloat(h.edges[i]), formatFloat(h.edges[i+1]), c, bar))
		}
		lines = append(lines, "")
	}
	return w.opts.Output.WriteLines("", lines)
}

func (w *AreaHist) writeCSV(keys []string, histograms map[string]histogram, allLabel string) error {
	var rows [][]string
	for _, k := range keys {
		h := histograms[k]
		for i, c := range h.counts {
			rows = append(rows, []string{
				w.labelFor(k, allLabel),
				strconv.Itoa(i),
				formatFloat(h.edges[i]),
				formatFloat(h.edges[i+1]),
				strconv.Itoa(c),
			})
		}
	}
	return w.opts.Output.WriteTable("", []string{"label", "bin", "from", "to", "count"}, rows)
}

type histBin struct {
	Bin   int     `json:"bin"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

type labelHistogram struct {
	Label string    `json:"label"`
	Bins  []histBin `json:"bins"`
}

func (w *AreaHist) writeJSON(keys []string, histograms map[string]histogram, allLabel string) error {
	out := make([]labelHistogram, 0, len(keys))
	for _, k := range keys {
		h := histograms[k]
		bins := make([]histBin, 0, len(h.counts))
		for i, c := range h.counts {
			bins = append(bins, histBin{Bin: i, From: h.edges[i], To: h.edges[i+1], Count: c})
		}
		out = append(out, labelHistogram{Label: w.labelFor(k, allLabel), Bins: bins})
	}
	return w.opts.Output.WriteJSON("", out)
}
