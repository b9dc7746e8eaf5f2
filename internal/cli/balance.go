package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/filter"
	"github.com/imgtools/imgstats/internal/pipeline"
	"github.com/imgtools/imgstats/internal/placeholder"
)

func newBalanceCmd(g *globalOptions) *cobra.Command {
	var (
		correctionPath     string
		seed               int64
		defaultProbability float64
		outputFile         string
	)

	cmd := &cobra.Command{
		Use:   "balance-labels",
		Short: "Balances labels by stochastically dropping records",
		Long:  "Tries to balance the labels in a classification stream by dropping records according to a per-label keep probability loaded from a JSON correction file. Such a file can be generated with 'label-dist -t label-balance-correction -f json'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger("balance-labels")
			if err != nil {
				return err
			}

			in, err := g.openInput()
			if err != nil {
				return err
			}
			defer in.Close()

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			buffered := bufio.NewWriter(out)
			emit := func(rec *data.Record) error {
				return data.Encode(buffered, rec)
			}

			if g.skip {
				log.Info("plugin disabled, passing all records through")
				err = passThrough(data.NewSource(in), emit)
			} else {
				sess := pipeline.NewSession()
				log = log.WithField("run_id", sess.RunID)

				f := filter.NewBalance(filter.BalanceOptions{
					CorrectionPath:     correctionPath,
					Seed:               seed,
					HasSeed:            cmd.Flags().Changed("seed"),
					DefaultProbability: defaultProbability,
					Log:                log,
				})
				err = pipeline.RunFilter(data.NewSource(in), f, emit, log)
			}
			if err != nil {
				closeOut()
				return err
			}
			if err := buffered.Flush(); err != nil {
				closeOut()
				return fmt.Errorf("flushing output: %w", err)
			}
			return closeOut()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&correctionPath, "label_correction", "c", "", "The JSON file with the probabilities per label. Supports placeholders.")
	flags.Int64VarP(&seed, "seed", "s", 0, "The seed value to use for the random number generator; randomly seeded if not provided.")
	flags.Float64VarP(&defaultProbability, "default_probability", "p", 1.0, "The default probability [0-1] to use if a label is not mentioned in the correction file: 0=discard, 1=keep.")
	flags.StringVarP(&outputFile, "output_file", "o", "", "The file to write the surviving records to as JSON lines; uses stdout if omitted. Supports placeholders.")

	return cmd
}

// passThrough copies the whole stream to the emitter unchanged.
func passThrough(src pipeline.Source, emit func(*data.Record) error) error {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(placeholder.Expand(path))
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
