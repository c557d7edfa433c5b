package ingest

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/mhutcheson/raingrid/internal/accum"
	"github.com/mhutcheson/raingrid/internal/blobstore"
	"github.com/mhutcheson/raingrid/internal/metrics"
	"github.com/mhutcheson/raingrid/internal/models"
	"github.com/mhutcheson/raingrid/internal/store"
)

// Runner drives one aggregation: load the grid, select sample keys, fetch
// and fold each sample, finalize. Any fetch or decode failure aborts the
// whole run; there is no skip-and-continue.
type Runner struct {
	store   blobstore.Store
	loader  *GridLoader
	fetcher *SampleFetcher
	history *store.Store
}

// NewRunner wires a runner. history may be nil; run rows are then not
// recorded.
func NewRunner(st blobstore.Store, loader *GridLoader, fetcher *SampleFetcher, history *store.Store) *Runner {
	return &Runner{store: st, loader: loader, fetcher: fetcher, history: history}
}

// Result is a completed run. The aggregate is finalized and must be
// treated as read-only.
type Result struct {
	Grid      *models.ReferenceGrid
	Aggregate *accum.Aggregate
	Units     string
	Keys      []string
	Duration  time.Duration
}

func (r *Runner) Run(ctx context.Context, sel models.SelectionKey) (*Result, error) {
	start := time.Now()
	mode := "day"
	if sel.SingleTime() {
		mode = "snapshot"
	}

	res, err := r.run(ctx, sel, mode)
	if err != nil {
		metrics.RunsCompleted.WithLabelValues(mode, "error").Inc()
		return nil, err
	}
	res.Duration = time.Since(start)
	metrics.RunsCompleted.WithLabelValues(mode, "ok").Inc()

	summary := res.Aggregate.Summarize()
	log.Printf("run: %s folded %d samples in %s (min %.2f, max %.2f %s)",
		sel.Prefix(), len(res.Keys), res.Duration.Round(time.Millisecond),
		summary.Min, summary.Max, res.Units)

	r.record(sel, mode, res, summary)
	return res, nil
}

func (r *Runner) run(ctx context.Context, sel models.SelectionKey, mode string) (*Result, error) {
	grid, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	h, w := grid.Shape()

	keys, err := r.selectKeys(ctx, sel)
	if err != nil {
		return nil, err
	}

	agg := accum.New(h, w)
	units := ""
	for _, key := range keys {
		s, err := r.fetcher.Fetch(ctx, key, h, w)
		if err != nil {
			return nil, err
		}

		// The source dataset never varies units within a day; if a mirror
		// does, the first sample wins and the divergence is only logged.
		if units == "" {
			units = s.Units
		} else if s.Units != "" && s.Units != units {
			log.Printf("run: %s has units %q, keeping %q from first sample", key, s.Units, units)
		}

		if err := agg.Fold(s); err != nil {
			return nil, err
		}
		metrics.SamplesFolded.Inc()
	}
	agg.Finalize()

	return &Result{Grid: grid, Aggregate: agg, Units: units, Keys: keys}, nil
}

// selectKeys resolves the selection to object keys. Single-time mode
// builds the exact key with no listing call. Full-day mode lists the day's
// prefix; the store's enumeration order is opaque, so keys are sorted for
// reproducibility. Zero matches is a valid, empty day.
func (r *Runner) selectKeys(ctx context.Context, sel models.SelectionKey) ([]string, error) {
	if sel.SingleTime() {
		key, err := sel.Key()
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	keys, err := r.store.List(ctx, sel.Prefix())
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Runner) record(sel models.SelectionKey, mode string, res *Result, summary accum.Summary) {
	if r.history == nil {
		return
	}
	run := store.Run{
		Category:   sel.Category,
		RunDate:    time.Date(sel.Year, time.Month(sel.Month), sel.Day, 0, 0, 0, 0, time.UTC),
		Mode:       mode,
		Samples:    len(res.Keys),
		MinValue:   sql.NullFloat64{Float64: summary.Min, Valid: true},
		MaxValue:   sql.NullFloat64{Float64: summary.Max, Valid: true},
		TotalValue: sql.NullFloat64{Float64: summary.Total, Valid: true},
		Units:      sql.NullString{String: res.Units, Valid: res.Units != ""},
		DurationMS: res.Duration.Milliseconds(),
	}
	if _, err := r.history.InsertRun(run); err != nil {
		log.Printf("run: record history: %v", err)
	}
}
