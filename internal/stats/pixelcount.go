package stats

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/imaging"
	"github.com/imgtools/imgstats/internal/report"
)

// PixelCountOptions configures a PixelCount writer.
type PixelCountOptions struct {
	Output report.Writer

	// Labels is the allow-list of layer labels to count; it also fixes
	// the output column order. Labels outside the list never appear in
	// the output.
	Labels []string

	// PerImage emits one report per record instead of one for the
	// whole run. Combined with input placeholders in the output path
	// this produces per-image count files.
	PerImage bool

	// SuppressPath omits the input path from output rows.
	SuppressPath bool

	Cache *imaging.Cache
	Log   *logrus.Entry
}

// PixelCount tallies per-label pixel counts in segmentation masks.
type PixelCount struct {
	opts   PixelCountOptions
	counts []imageCount
}

type imageCount struct {
	Path   string                `json:"path,omitempty"`
	Name   string                `json:"name"`
	Width  int                   `json:"width"`
	Height int                   `json:"height"`
	Labels map[string]labelCount `json:"labels"`
}

type labelCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// NewPixelCount creates the writer; call Init before use.
func NewPixelCount(opts PixelCountOptions) *PixelCount {
	return &PixelCount{opts: opts}
}

func (w *PixelCount) Name() string { return "pixel-count" }

func (w *PixelCount) Accepts() []data.Domain {
	return []data.Domain{data.DomainSegmentation}
}

func (w *PixelCount) Init() error {
	if len(w.opts.Labels) == 0 {
		return fmt.Errorf("no labels specified")
	}
	w.counts = nil
	return nil
}

func (w *PixelCount) Write(rec *data.Record) error {
	layers, err := imaging.Layers(w.opts.Cache, rec)
	if err != nil {
		return err
	}

	total := rec.PixelArea()
	count := imageCount{
		Name:   rec.Name,
		Width:  rec.Width,
		Height: rec.Height,
		Labels: make(map[string]labelCount, len(w.opts.Labels)),
	}
	if !w.opts.SuppressPath {
		count.Path = rec.Source
	}

	for _, label := range w.opts.Labels {
		pixels := 0
		if layer, ok := layers[label]; ok {
			pixels = imaging.CountForeground(layer)
		}
		percentage := 0.0
		if total > 0 {
			percentage = float64(pixels) / total * 100.0
		}
		count.Labels[label] = labelCount{Count: pixels, Percentage: percentage}
	}

	w.counts = append(w.counts, count)

	if w.opts.PerImage {
		if err := w.flush(rec.Source); err != nil {
			return err
		}
		w.counts = nil
		w.evict(rec)
	}
	return nil
}

func (w *PixelCount) Finalize() error {
	if w.opts.PerImage {
		return nil
	}
	return w.flush("")
}

// evict drops a processed record's masks from the cache; in per-image
// mode nothing reads them again.
func (w *PixelCount) evict(rec *data.Record) {
	for _, path := range rec.Layers {
		w.opts.Cache.Evict(path)
	}
	if rec.Mask != "" {
		w.opts.Cache.Evict(rec.Mask)
	}
}

func (w *PixelCount) flush(input string) error {
	switch w.opts.Output.Format {
	case report.FormatText:
		return w.opts.Output.WriteLines(input, w.textLines())
	case report.FormatCSV:
		header, rows := w.table()
		return w.opts.Output.WriteTable(input, header, rows)
	case report.FormatJSON:
		return w.opts.Output.WriteJSON(input, w.counts)
	}
	return fmt.Errorf("unhandled output format: %s", w.opts.Output.Format)
}

func (w *PixelCount) textLines() []string {
	indent := ""
	if !w.opts.SuppressPath {
		indent = "  "
	}
	var lines []string
	for _, count := range w.counts {
		if !w.opts.SuppressPath {
			lines = append(lines, count.Path)
		}
		lines = append(lines,
			fmt.Sprintf("%sname: %s", indent, count.Name),
			fmt.Sprintf("%swidth: %d", indent, count.Width),
			fmt.Sprintf("%sheight: %d", indent, count.Height),
			fmt.Sprintf("%slabels:", indent))
		for _, label := range w.opts.Labels {
			lc := count.Labels[label]
			lines = append(lines, fmt.Sprintf("%s  %s: %d (%s%%)", indent, label, lc.Count, formatFloat(lc.Percentage)))
		}
		lines = append(lines, "")
	}
	return lines
}

func (w *PixelCount) table() ([]string, [][]string) {
	header := []string{}
	if !w.opts.SuppressPath {
		header = append(header, "path")
	}
	header = append(header, "name", "width", "height")
	for _, label := range w.opts.Labels {
		header = append(header, label+" - count", label+" - %")
	}

	rows := make([][]string, 0, len(w.counts))
	for _, count := range w.counts {
		row := []string{}
		if !w.opts.SuppressPath {
			row = append(row, count.Path)
		}
		row = append(row, count.Name, strconv.Itoa(count.Width), strconv.Itoa(count.Height))
		for _, label := range w.opts.Labels {
			lc := count.Labels[label]
			row = append(row, strconv.Itoa(lc.Count), formatFloat(lc.Percentage))
		}
		rows = append(rows, row)
	}
	return header, rows
}
