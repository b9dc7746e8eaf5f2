package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/pipeline"
	"github.com/imgtools/imgstats/internal/report"
	"github.com/imgtools/imgstats/internal/stats"
)

func newLabelDistCmd(g *globalOptions) *cobra.Command {
	var (
		outputFile   string
		outputFormat string
		labelKey     string
		outputType   string
		percentages  bool
	)

	cmd := &cobra.Command{
		Use:   "label-dist",
		Short: "Collects the labels and outputs their distribution",
		Long:  "Collects the labels and outputs their distribution: raw counts, percentages, or label-balance correction factors usable as input to balance-labels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWriter(g, "label-dist", func(sess *pipeline.Session, log *logrus.Entry) (pipeline.Writer, error) {
				format, err := report.ParseFormat(outputFormat, report.FormatText, report.FormatCSV, report.FormatJSON)
				if err != nil {
					return nil, err
				}
				if outputType != "" {
					switch outputType {
					case stats.OutputCounts, stats.OutputPercentages, stats.OutputCorrection:
					default:
						return nil, fmt.Errorf("unknown output type %q, available: %s, %s, %s",
							outputType, stats.OutputCounts, stats.OutputPercentages, stats.OutputCorrection)
					}
				}
				return stats.NewLabelDist(stats.LabelDistOptions{
					Output:      report.Writer{PathTemplate: outputFile, Format: format},
					LabelKey:    labelKey,
					OutputType:  outputType,
					Percentages: percentages,
					Log:         log,
				}), nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFile, "output_file", "o", "", "The file to write the statistics to; uses stdout if omitted. Supports placeholders.")
	flags.StringVarP(&outputFormat, "output_format", "f", "text", "The format to use for the output: text, csv, json.")
	flags.StringVarP(&labelKey, "label_key", "k", "", "The key in the (object detection) meta-data that contains the label.")
	flags.StringVarP(&outputType, "output_type", "t", "", "The type of distribution to output: counts, percentages, label-balance-correction.")
	flags.BoolVarP(&percentages, "percentages", "p", false, "Deprecated, use -t/--output_type instead: whether to output percentages instead of counts.")

	return cmd
}
