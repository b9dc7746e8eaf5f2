package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/pipeline"
	"github.com/imgtools/imgstats/internal/report"
	"github.com/imgtools/imgstats/internal/stats"
)

func newPixelCountCmd(g *globalOptions) *cobra.Command {
	var (
		outputFile   string
		outputFormat string
		labels       []string
		perImage     bool
		suppressPath bool
	)

	cmd := &cobra.Command{
		Use:   "pixel-count",
		Short: "Counts the pixels per label per image",
		Long:  "Counts the pixels per label in segmentation masks, either aggregated across the run or per image. Input-derived placeholders in the output path allow per-image count files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWriter(g, "pixel-count", func(sess *pipeline.Session, log *logrus.Entry) (pipeline.Writer, error) {
				format, err := report.ParseFormat(outputFormat, report.FormatText, report.FormatCSV, report.FormatJSON)
				if err != nil {
					return nil, err
				}
				return stats.NewPixelCount(stats.PixelCountOptions{
					Output:       report.Writer{PathTemplate: outputFile, Format: format},
					Labels:       labels,
					PerImage:     perImage,
					SuppressPath: suppressPath,
					Cache:        sess.Cache,
					Log:          log,
				}), nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFile, "output_file", "o", "", "The file to write the statistics to; uses stdout if omitted. Supports placeholders, including input-derived ones.")
	flags.StringVarP(&outputFormat, "output_format", "f", "text", "The format to use for the output: text, csv, json.")
	flags.StringSliceVar(&labels, "labels", nil, "The labels to calculate the pixel count for; also determines the column order.")
	flags.BoolVar(&perImage, "per_image", false, "Whether to output the statistics per image rather than for the complete run.")
	flags.BoolVar(&suppressPath, "suppress_path", false, "Whether to suppress the path in the output.")
	cobra.CheckErr(cmd.MarkFlagRequired("labels"))

	return cmd
}
