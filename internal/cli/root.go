// Package cli wires the plugins into an imgstats subcommand each.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/logging"
	"github.com/imgtools/imgstats/internal/pipeline"
)

// Environment variables consulted for defaults, optionally loaded from
// a .env file in the working directory.
const (
	envLoggingLevel = "IMGSTATS_LOGGING_LEVEL"
	envLoggerName   = "IMGSTATS_LOGGER_NAME"
)

// globalOptions are the flags every subcommand exposes.
type globalOptions struct {
	loggingLevel string
	loggerName   string
	skip         bool
	input        string
}

// NewRootCmd builds the imgstats command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "imgstats",
		Short:         "Statistics and label-rebalancing plugins for annotated image streams",
		Long:          "imgstats computes statistics (label distributions, contour areas, pixel counts, area histograms) over a stream of annotation records, and can rebalance a skewed label distribution by stochastically dropping records.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// missing .env is fine
			_ = godotenv.Load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.loggingLevel, "logging_level", "l", "", "The logging level (panic, fatal, error, warning, info, debug, trace); defaults to warning.")
	flags.StringVarP(&opts.loggerName, "logger_name", "N", "", "The name to use for the logger; defaults to the command name.")
	flags.BoolVar(&opts.skip, "skip", false, "Disables the plugin entirely.")
	flags.StringVarP(&opts.input, "input", "i", "-", "The JSON-lines stream of annotation records to process; '-' reads stdin.")

	root.AddCommand(
		newLabelDistCmd(opts),
		newContourAreasCmd(opts),
		newPixelCountCmd(opts),
		newAreaHistCmd(opts),
		newBalanceCmd(opts),
	)

	return root
}

// logger builds the per-plugin logger from the global flags, falling
// back to environment defaults.
func (g *globalOptions) logger(command string) (*logrus.Entry, error) {
	name := g.loggerName
	if name == "" {
		name = os.Getenv(envLoggerName)
	}
	if name == "" {
		name = command
	}

	level := g.loggingLevel
	if level == "" {
		level = os.Getenv(envLoggingLevel)
	}
	return logging.New(name, level)
}

// openInput opens the record stream; "-" or empty means stdin.
func (g *globalOptions) openInput() (io.ReadCloser, error) {
	if g.input == "" || g.input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(g.input)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

// runWriter is the shared driver for the writer subcommands.
func runWriter(g *globalOptions, command string, build func(sess *pipeline.Session, log *logrus.Entry) (pipeline.Writer, error)) error {
	log, err := g.logger(command)
	if err != nil {
		return err
	}
	if g.skip {
		log.Info("plugin disabled, nothing to do")
		return nil
	}

	sess := pipeline.NewSession()
	log = log.WithField("run_id", sess.RunID)

	w, err := build(sess, log)
	if err != nil {
		return err
	}

	in, err := g.openInput()
	if err != nil {
		return err
	}
	defer in.Close()

	return pipeline.RunWriter(data.NewSource(in), w, log)
}
