// Package stats implements the statistics writer plugins: label
// distributions, pixel counts, annotation area histograms and contour
// area records.
package stats

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/report"
)

// Output types of the label distribution writer.
const (
	OutputCounts      = "counts"
	OutputPercentages = "percentages"
	OutputCorrection  = "label-balance-correction"
)

// LabelDistOptions configures a LabelDist writer.
type LabelDistOptions struct {
	Output   report.Writer
	LabelKey string

	// OutputType selects counts, percentages or
	// label-balance-correction. It supersedes Percentages.
	OutputType string

	// Percentages is the deprecated boolean form of
	// OutputType=percentages.
	Percentages bool

	Log *logrus.Entry
}

// LabelDist collects label occurrences across the stream and outputs
// their distribution: raw counts, fractions of the total, or per-label
// keep probabilities that would downsample every label to the
// frequency of the rarest one. The latter, written as JSON, is a valid
// correction file for the balance-labels filter.
type LabelDist struct {
	opts       LabelDistOptions
	outputType string
	counts     map[string]int
}

// NewLabelDist creates the writer; call Init before use.
func NewLabelDist(opts LabelDistOptions) *LabelDist {
	return &LabelDist{opts: opts}
}

func (w *LabelDist) Name() string { return "label-dist" }

func (w *LabelDist) Accepts() []data.Domain {
	return []data.Domain{data.DomainClassification, data.DomainDetection, data.DomainSegmentation}
}

func (w *LabelDist) Init() error {
	if w.opts.LabelKey == "" {
		w.opts.LabelKey = data.DefaultLabelKey
	}

	w.outputType = w.opts.OutputType
	if w.opts.Percentages {
		if w.outputType == "" {
			w.opts.Log.Warning("-p/--percentages is deprecated, use -t/--output_type percentages instead")
			w.outputType = OutputPercentages
		} else {
			w.opts.Log.Warningf("-p/--percentages is deprecated and ignored in favor of -t/--output_type %s", w.outputType)
		}
	}
	if w.outputType == "" {
		w.outputType = OutputCounts
	}

	switch w.outputType {
	case OutputCounts, OutputPercentages, OutputCorrection:
	default:
		return fmt.Errorf("unknown output type %q", w.outputType)
	}

	w.counts = make(map[string]int)
	return nil
}

func (w *LabelDist) Write(rec *data.Record) error {
	switch rec.Domain {
	case data.DomainClassification:
		if rec.Label == "" {
			w.opts.Log.Warningf("skipping unlabeled record %q", rec.Name)
			return nil
		}
		w.counts[rec.Label]++
	case data.DomainDetection:
		for i := range rec.Objects {
			label, ok := rec.Objects[i].Label(w.opts.LabelKey)
			if !ok {
				w.opts.Log.Debugf("record %q: object without %q key, skipping", rec.Name, w.opts.LabelKey)
				continue
			}
			w.counts[label]++
		}
	case data.DomainSegmentation:
		for _, label := range rec.SegLabels() {
			w.counts[label]++
		}
	}
	return nil
}

func (w *LabelDist) Finalize() error {
	keys := make([]string, 0, len(w.counts))
	for k := range w.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch w.outputType {
	case OutputCounts:
		return w.writeCounts(keys)
	case OutputPercentages:
		return w.writeFractions(keys, "Percentage", w.percentages())
	case OutputCorrection:
		return w.writeFractions(keys, "Probability", w.correction())
	}
	return nil
}

// percentages maps each label to its fraction of the total count; the
// values sum to 1.
func (w *LabelDist) percentages() map[string]float64 {
	total := 0
	for _, c := range w.counts {
		total += c
	}
	dist := make(map[string]float64, len(w.counts))
	for k, c := range w.counts {
		dist[k] = float64(c) / float64(total)
	}
	return dist
}

// correction maps each label to min_count/count, capped at 1. The
// rarest label gets exactly 1.
func (w *LabelDist) correction() map[string]float64 {
	minCount := 0
	for _, c := range w.counts {
		if minCount == 0 || c < minCount {
			minCount = c
		}
	}
	dist := make(map[string]float64, len(w.counts))
	for k, c := range w.counts {
		p := float64(minCount) / float64(c)
		if p > 1 {
			p = 1
		}
		dist[k] = p
	}
	return dist
}

func (w *LabelDist) writeCounts(keys []string) error {
	switch w.opts.Output.Format {
	case report.FormatText:
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %d", k, w.counts[k]))
		}
		return w.opts.Output.WriteLines("", lines)
	case report.FormatCSV:
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, strconv.Itoa(w.counts[k])})
		}
		return w.opts.Output.WriteTable("", []string{"Label", "Count"}, rows)
	case report.FormatJSON:
		return w.opts.Output.WriteJSON("", w.counts)
	}
	return fmt.Errorf("unhandled output format: %s", w.opts.Output.Format)
}

func (w *LabelDist) writeFractions(keys []string, column string, dist map[string]float64) error {
	switch w.opts.Output.Format {
	case report.FormatText:
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, formatFloat(dist[k])))
		}
		return w.opts.Output.WriteLines("", lines)
	case report.FormatCSV:
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, formatFloat(dist[k])})
		}
		return w.opts.Output.WriteTable("", []string{"Label", column}, rows)
	case report.FormatJSON:
		return w.opts.Output.WriteJSON("", dist)
	}
	return fmt.Errorf("unhandled output format: %s", w.opts.Output.Format)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
