package data

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single JSONL line; detection records with many
// polygons can get long.
const maxLineBytes = 16 * 1024 * 1024

// Source reads annotation records from a JSON-lines stream, one record
// per line. Blank lines are skipped. A malformed line aborts the
// stream with an error identifying the line number.
type Source struct {
	scanner *bufio.Scanner
	line    int
}

// NewSource wraps a reader producing JSON-lines records.
func NewSource(r io.Reader) *Source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Source{scanner: scanner}
}

// Next returns the next record in the stream, or io.EOF once the
// stream is exhausted.
func (s *Source) Next() (*Record, error) {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: decoding record: %w", s.line, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return &rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return nil, io.EOF
}

// Encode writes a record as a single JSONL line.
func Encode(w io.Writer, rec *Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", rec.Name, err)
	}
	buf = append(buf, '\n')
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing record %q: %w", rec.Name, err)
	}
	return nil
}
