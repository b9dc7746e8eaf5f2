// Package pipeline defines the plugin contracts and the serial stream
// runner driving records from a source into a single plugin instance.
//
// Processing is record-at-a-time and single-threaded; each plugin owns
// its accumulator exclusively.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/imaging"
)

// Session carries per-run state shared by whichever plugin runs: a run
// identifier for log correlation and the image cache.
type Session struct {
	RunID string
	Cache *imaging.Cache
}

// NewSession creates a session with a fresh run ID.
func NewSession() *Session {
	return &Session{
		RunID: uuid.NewString(),
		Cache: imaging.NewCache(),
	}
}

// Source yields annotation records one at a time, returning io.EOF
// once the stream is exhausted.
type Source interface {
	Next() (*data.Record, error)
}

// Writer is a statistics plugin: it consumes the stream without
// altering it, accumulating per-record state, and emits its report
// during processing or at Finalize.
type Writer interface {
	Name() string
	Accepts() []data.Domain
	Init() error
	Write(rec *data.Record) error
	Finalize() error
}

// Filter is a plugin that decides per record whether it propagates
// downstream.
type Filter interface {
	Name() string
	Accepts() []data.Domain
	Init() error
	// Process reports whether the record is kept.
	Process(rec *data.Record) (bool, error)
	Finalize() error
}

// RunWriter drives a full stream through a writer plugin. Records
// whose domain the writer does not accept are skipped with a debug
// note; the host pipeline would not have routed them here.
func RunWriter(src Source, w Writer, log *logrus.Entry) error {
	if err := w.Init(); err != nil {
		return fmt.Errorf("%s: initializing: %w", w.Name(), err)
	}

	processed := 0
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", w.Name(), err)
		}
		if !accepts(w.Accepts(), rec.Domain) {
			log.Debugf("skipping %q: domain %s not accepted", rec.Name, rec.Domain)
			continue
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("%s: record %q: %w", w.Name(), rec.Name, err)
		}
		processed++
	}

	if err := w.Finalize(); err != nil {
		return fmt.Errorf("%s: finalizing: %w", w.Name(), err)
	}
	log.Infof("processed %d record(s)", processed)
	return nil
}

// RunFilter drives a full stream through a filter plugin, handing kept
// records to emit.
func RunFilter(src Source, f Filter, emit func(*data.Record) error, log *logrus.Entry) error {
	if err := f.Init(); err != nil {
		return fmt.Errorf("%s: initializing: %w", f.Name(), err)
	}

	kept, dropped := 0, 0
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
		keep, err := f.Process(rec)
		if err != nil {
			return fmt.Errorf("%s: record %q: %w", f.Name(), rec.Name, err)
		}
		if !keep {
			dropped++
			continue
		}
		if err := emit(rec); err != nil {
			return fmt.Errorf("%s: record %q: %w", f.Name(), rec.Name, err)
		}
		kept++
	}

	if err := f.Finalize(); err != nil {
		return fmt.Errorf("%s: finalizing: %w", f.Name(), err)
	}
	log.Infof("kept %d record(s), dropped %d", kept, dropped)
	return nil
}

func accepts(domains []data.Domain, d data.Domain) bool {
	for _, a := range domains {
		if a == d {
			return true
		}
	}
	return false
}
