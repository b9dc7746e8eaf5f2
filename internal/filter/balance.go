// Package filter implements the stream filter plugins.
package filter

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/placeholder"
)

// BalanceOptions configures a Balance filter.
type BalanceOptions struct {
	// CorrectionPath is the JSON correction file: a label-to-keep-
	// probability map. The label-dist writer's label-balance-correction
	// output is a valid file. Placeholders are expanded.
	CorrectionPath string

	// Seed seeds the random generator when HasSeed is set, making the
	// keep/drop sequence reproducible.
	Seed    int64
	HasSeed bool

	// DefaultProbability covers labels absent from the table:
	// 0 always drops, 1 always keeps.
	DefaultProbability float64

	Log *logrus.Entry
}

// Balance stochastically drops classification records to approximate
// a target label distribution: each record is kept with the
// probability its label maps to in the correction table.
type Balance struct {
	opts  BalanceOptions
	table map[string]float64
	rng   *rand.Rand
}

// NewBalance creates the filter; call Init before use.
func NewBalance(opts BalanceOptions) *Balance {
	return &Balance{opts: opts}
}

func (f *Balance) Name() string { return "balance-labels" }

func (f *Balance) Accepts() []data.Domain {
	return []data.Domain{data.DomainClassification}
}

func (f *Balance) Init() error {
	if f.opts.CorrectionPath == "" {
		return fmt.Errorf("no label correction file provided")
	}

	seed := f.opts.Seed
	if !f.opts.HasSeed {
		seed = time.Now().UnixNano()
	}
	f.rng = rand.New(rand.NewSource(seed))

	path := placeholder.Expand(f.opts.CorrectionPath)
	f.opts.Log.Infof("loading correction file: %s", path)

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading correction file: %w", err)
	}
	table := make(map[string]float64)
	if err := json.Unmarshal(buf, &table); err != nil {
		return fmt.Errorf("parsing correction file %s: %w", path, err)
	}
	for label, p := range table {
		if p < 0 || p > 1 {
			return fmt.Errorf("correction file %s: probability for %q out of [0,1]: %v", path, label, p)
		}
	}
	f.table = table
	return nil
}

func (f *Balance) Process(rec *data.Record) (bool, error) {
	if rec.Domain != data.DomainClassification {
		f.opts.Log.Warningf("skipping %q: wrong domain %s", rec.Name, rec.Domain)
		return false, nil
	}
	if rec.Label == "" {
		f.opts.Log.Warningf("skipping %q: no label", rec.Name)
		return false, nil
	}

	p := f.opts.DefaultProbability
	if prob, ok := f.table[rec.Label]; ok {
		p = prob
	}
	return f.rng.Float64() <= p, nil
}

func (f *Balance) Finalize() error { return nil }
