// Package report renders accumulated statistics as text, CSV or JSON
// and writes them to a placeholder-expanded file path or to stdout.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/imgtools/imgstats/internal/placeholder"
)

// Format selects the rendering of a report.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format against the set a
// plugin supports.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("unknown output format %q, available: %s", s, strings.Join(names, ", "))
}

// Writer resolves an output destination per write: the path template
// is expanded against the current input, an empty template means
// stdout. The zero Stdout defaults to os.Stdout; tests override it.
type Writer struct {
	PathTemplate string
	Format       Format
	Stdout       io.Writer
}

func (w *Writer) stdout() io.Writer {
	if w.Stdout != nil {
		return w.Stdout
	}
	return os.Stdout
}

// open returns the destination for the current input plus a close
// function (a no-op for stdout).
func (w *Writer) open(input string) (io.Writer, func() error, error) {
	if w.PathTemplate == "" {
		return w.stdout(), func() error { return nil }, nil
	}
	path := placeholder.ExpandWith(w.PathTemplate, input)
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// WriteLines writes pre-rendered text lines, one per line. Used by the
// text format, whose layout is plugin-specific.
func (w *Writer) WriteLines(input string, lines []string) error {
	out, closeFn, err := w.open(input)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := io.WriteString(out, line+"\n"); err != nil {
			closeFn()
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return closeFn()
}

// WriteTable writes a header row plus data rows as CSV.
func (w *Writer) WriteTable(input string, header []string, rows [][]string) error {
	out, closeFn, err := w.open(input)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		closeFn()
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			closeFn()
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		closeFn()
		return fmt.Errorf("flushing csv: %w", err)
	}
	return closeFn()
}

// WriteJSON writes a value as indented JSON.
func (w *Writer) WriteJSON(input string, v any) error {
	out, closeFn, err := w.open(input)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		closeFn()
		return fmt.Errorf("writing json: %w", err)
	}
	return closeFn()
}
