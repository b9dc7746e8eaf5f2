package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/pipeline"
	"github.com/imgtools/imgstats/internal/report"
	"github.com/imgtools/imgstats/internal/stats"
)

func newAreaHistCmd(g *globalOptions) *cobra.Command {
	var (
		outputFile   string
		outputFormat string
		labelKey     string
		numBins      int
		forceBBox    bool
		normalized   bool
		allLabel     string
	)

	cmd := &cobra.Command{
		Use:   "area-histogram",
		Short: "Generates histograms of the area occupied by the annotations",
		Long:  "Generates histograms of the area (normalized or absolute) occupied by the annotations, one per label plus a combined one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWriter(g, "area-histogram", func(sess *pipeline.Session, log *logrus.Entry) (pipeline.Writer, error) {
				format, err := report.ParseFormat(outputFormat, report.FormatText, report.FormatCSV, report.FormatJSON)
				if err != nil {
					return nil, err
				}
				return stats.NewAreaHist(stats.AreaHistOptions{
					Output:     report.Writer{PathTemplate: outputFile, Format: format},
					LabelKey:   labelKey,
					NumBins:    numBins,
					ForceBBox:  forceBBox,
					Normalized: normalized,
					AllLabel:   allLabel,
					Cache:      sess.Cache,
					Log:        log,
				}), nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFile, "output_file", "o", "", "The file to write the histograms to; uses stdout if omitted. Supports placeholders.")
	flags.StringVarP(&outputFormat, "output_format", "f", "text", "The format to use for the output: text, csv, json.")
	flags.StringVarP(&labelKey, "label_key", "k", "", "The key in the (object detection) meta-data that contains the label.")
	flags.IntVarP(&numBins, "num_bins", "B", 20, "The number of bins to use for the histogram.")
	flags.BoolVarP(&forceBBox, "force_bbox", "b", false, "Whether to use the bounding box even if a polygon is present (object detection domain only).")
	flags.BoolVarP(&normalized, "normalized", "n", false, "Whether to use normalized areas (using the image size as base).")
	flags.StringVarP(&allLabel, "all_label", "a", stats.DefaultAllLabel, "The label to use for all the labels combined.")

	return cmd
}
