package ingest

import (
	"context"
	"log"

	"github.com/mhutcheson/raingrid/internal/blobstore"
	"github.com/mhutcheson/raingrid/internal/models"
	"github.com/mhutcheson/raingrid/internal/store"
)

// GridLoader fetches the dataset's reference latitude/longitude grid. The
// grid object is large and never changes, so fetched bytes are kept in the
// artifact cache when one is configured. The cache is advisory: any cache
// failure falls back to the store.
type GridLoader struct {
	store     blobstore.Store
	cache     *store.Store
	objectKey string
}

// NewGridLoader creates a loader for the well-known grid object. cache may
// be nil.
func NewGridLoader(st blobstore.Store, cache *store.Store, objectKey string) *GridLoader {
	return &GridLoader{store: st, cache: cache, objectKey: objectKey}
}

// Load fetches and decodes the reference grid. The decoded container must
// hold 2-D "latitude" and "longitude" variables of identical shape.
func (l *GridLoader) Load(ctx context.Context) (*models.ReferenceGrid, error) {
	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err := maybeGunzip(l.objectKey, raw)
	if err != nil {
		return nil, err
	}

	nc, err := openContainer(l.objectKey, data)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	lat, err := l.variable(nc, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := l.variable(nc, "longitude")
	if err != nil {
		return nil, err
	}

	if len(lat) != len(lon) || (len(lat) > 0 && len(lat[0]) != len(lon[0])) {
		return nil, &models.FormatError{
			Key:    l.objectKey,
			Reason: "latitude and longitude shapes disagree",
		}
	}

	grid := &models.ReferenceGrid{Lat: lat, Lon: lon}
	h, w := grid.Shape()
	log.Printf("grid: loaded %s (%dx%d)", l.objectKey, h, w)
	return grid, nil
}

func (l *GridLoader) variable(nc container, name string) ([][]float64, error) {
	v, err := nc.GetVariable(name)
	if err != nil || v == nil {
		return nil, &models.FormatError{Key: l.objectKey, Reason: "variable " + name + " not present", Err: err}
	}
	return grid2D(l.objectKey, name, v)
}

func (l *GridLoader) fetch(ctx context.Context) ([]byte, error) {
	if l.cache != nil {
		cached, err := l.cache.GetArtifact(l.objectKey)
		if err != nil {
			log.Printf("grid: cache read failed, refetching: %v", err)
		} else if cached != nil {
			log.Printf("grid: using cached %s (%d bytes)", l.objectKey, len(cached))
			return cached, nil
		}
	}

	raw, err := l.store.Fetch(ctx, l.objectKey)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.PutArtifact(l.objectKey, raw); err != nil {
			log.Printf("grid: cache write failed: %v", err)
		}
	}
	return raw, nil
}
