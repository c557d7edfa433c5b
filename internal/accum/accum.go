// Package accum folds time-sliced sample arrays into a per-cell running
// sum. Negative sample values are the dataset's no-data sentinel and
// contribute zero. The result is a sum, not an average: cells observed in
// more samples read higher, and downstream consumers rely on that.
package accum

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/mhutcheson/raingrid/internal/models"
)

// Aggregate accumulates sample arrays over a run. It has two states:
// accumulating (mutable, zero or more folds) and finalized (read-only).
type Aggregate struct {
	cells     [][]float64
	h, w      int
	folds     int
	finalized bool
}

// New returns an all-zero Aggregate of the given shape.
func New(h, w int) *Aggregate {
	cells := make([][]float64, h)
	for i := range cells {
		cells[i] = make([]float64, w)
	}
	return &Aggregate{cells: cells, h: h, w: w}
}

// Fold adds a sample into the running sum, treating negative sentinel
// values as zero. The sample's shape must match exactly; mismatch is a
// FormatError, never a coercion.
func (a *Aggregate) Fold(s *models.Sample) error {
	if a.finalized {
		return fmt.Errorf("fold %s: aggregate already finalized", s.Key)
	}
	if len(s.Values) != a.h {
		return &models.FormatError{
			Key:    s.Key,
			Reason: fmt.Sprintf("shape (%d, ?) does not match grid (%d, %d)", len(s.Values), a.h, a.w),
		}
	}
	for i, row := range s.Values {
		if len(row) != a.w {
			return &models.FormatError{
				Key:    s.Key,
				Reason: fmt.Sprintf("row %d has %d cells, grid width is %d", i, len(row), a.w),
			}
		}
	}

	for i, row := range s.Values {
		dst := a.cells[i]
		for j, v := range row {
			if v > 0 {
				dst[j] += v
			}
		}
	}
	a.folds++
	return nil
}

// Finalize transitions the aggregate to read-only. There is no way back.
func (a *Aggregate) Finalize() {
	a.finalized = true
}

// Finalized reports whether Fold is still permitted.
func (a *Aggregate) Finalized() bool {
	return a.finalized
}

// Folds returns how many samples have been folded in.
func (a *Aggregate) Folds() int {
	return a.folds
}

// Shape returns (height, width).
func (a *Aggregate) Shape() (int, int) {
	return a.h, a.w
}

// Cells exposes the accumulated array. Callers must treat it as read-only.
func (a *Aggregate) Cells() [][]float64 {
	return a.cells
}

// Summary holds display statistics over a finalized aggregate. It is
// computed once after folding and plays no part in accumulation.
type Summary struct {
	Min      float64
	Max      float64
	Total    float64
	WetCells int
}

func (a *Aggregate) Summarize() Summary {
	if a.h == 0 || a.w == 0 {
		return Summary{}
	}
	s := Summary{
		Min: floats.Min(a.cells[0]),
		Max: floats.Max(a.cells[0]),
	}
	for _, row := range a.cells {
		if m := floats.Min(row); m < s.Min {
			s.Min = m
		}
		if m := floats.Max(row); m > s.Max {
			s.Max = m
		}
		s.Total += floats.Sum(row)
		for _, v := range row {
			if v > 0 {
				s.WetCells++
			}
		}
	}
	return s
}
