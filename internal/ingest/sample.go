package ingest

import (
	"context"
	"fmt"

	"github.com/mhutcheson/raingrid/internal/blobstore"
	"github.com/mhutcheson/raingrid/internal/models"
)

// SampleFetcher retrieves one time-sliced sample: fetch bytes, gunzip,
// decode the container, extract the named variable and its units. Sample
// objects are always gzip-compressed in this dataset, so a bad gzip header
// is corruption, not an uncompressed object.
type SampleFetcher struct {
	store    blobstore.Store
	variable string
}

func NewSampleFetcher(st blobstore.Store, variable string) *SampleFetcher {
	return &SampleFetcher{store: st, variable: variable}
}

// Fetch retrieves and decodes the sample at key. The decoded array must
// match the reference grid shape (h, w) exactly.
func (f *SampleFetcher) Fetch(ctx context.Context, key string, h, w int) (*models.Sample, error) {
	raw, err := f.store.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := gunzip(key, raw)
	if err != nil {
		return nil, err
	}

	nc, err := openContainer(key, data)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	v, err := nc.GetVariable(f.variable)
	if err != nil || v == nil {
		return nil, &models.FormatError{Key: key, Reason: "variable " + f.variable + " not present", Err: err}
	}

	values, err := grid2D(key, f.variable, v)
	if err != nil {
		return nil, err
	}

	if len(values) != h || (len(values) > 0 && len(values[0]) != w) {
		return nil, &models.FormatError{
			Key: key,
			Reason: fmt.Sprintf("shape (%d, %d) does not match grid (%d, %d)",
				len(values), width(values), h, w),
		}
	}

	return &models.Sample{Key: key, Values: values, Units: unitsOf(v)}, nil
}

func width(values [][]float64) int {
	if len(values) == 0 {
		return 0
	}
	return len(values[0])
}
