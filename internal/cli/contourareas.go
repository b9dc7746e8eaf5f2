package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/pipeline"
	"github.com/imgtools/imgstats/internal/report"
	"github.com/imgtools/imgstats/internal/stats"
)

func newContourAreasCmd(g *globalOptions) *cobra.Command {
	var (
		outputFile   string
		outputFormat string
		applyTo      string
		invert       bool
		minArea      float64
		maxArea      float64
		threshold    uint8
		formatAction string
	)

	cmd := &cobra.Command{
		Use:   "contour-areas",
		Short: "Records the areas of contours of objects",
		Long:  "Binarizes image and/or annotation pixels, runs contour detection and records each contour's size and bounding location, filtered by the area bounds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWriter(g, "contour-areas", func(sess *pipeline.Session, log *logrus.Entry) (pipeline.Writer, error) {
				format, err := report.ParseFormat(outputFormat, report.FormatCSV, report.FormatJSON)
				if err != nil {
					return nil, err
				}
				return stats.NewContourAreas(stats.ContourAreasOptions{
					Output:                report.Writer{PathTemplate: outputFile, Format: format},
					ApplyTo:               applyTo,
					Invert:                invert,
					MinArea:               minArea,
					MaxArea:               maxArea,
					Threshold:             threshold,
					IncorrectFormatAction: formatAction,
					Cache:                 sess.Cache,
					Log:                   log,
				}), nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFile, "output_file", "o", "", "The file to write the contour areas to; uses stdout if omitted. Supports placeholders.")
	flags.StringVarP(&outputFormat, "output_format", "f", "csv", "The format to use for the output: csv, json.")
	flags.StringVar(&applyTo, "apply_to", stats.ApplyToImage, "The pixels to apply the contour detection to: image, annotations, both.")
	flags.BoolVar(&invert, "invert", false, "Whether to invert the binary image before detecting contours.")
	flags.Float64Var(&minArea, "min_area", -1, "The minimum area (inclusive) for the contours; unbounded if negative.")
	flags.Float64Var(&maxArea, "max_area", -1, "The maximum area (inclusive) for the contours; unbounded if negative.")
	flags.Uint8Var(&threshold, "threshold", stats.DefaultThreshold, "The binarization level applied to image pixels.")
	flags.StringVar(&formatAction, "incorrect_format_action", stats.FormatActionSkip, "What to do with records that cannot supply the requested pixel data: skip, fail.")

	return cmd
}
