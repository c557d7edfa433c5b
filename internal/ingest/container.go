package ingest

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/mhutcheson/raingrid/internal/models"
)

// container is the slice of api.Group the decoders need.
type container interface {
	GetVariable(name string) (*api.Variable, error)
}

// readSeekerCloser adapts in-memory bytes to the reader the NetCDF
// decoder expects.
type readSeekerCloser struct {
	*bytes.Reader
}

func (readSeekerCloser) Close() error { return nil }

func openContainer(key string, data []byte) (api.Group, error) {
	nc, err := netcdf.New(readSeekerCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, &models.FormatError{Key: key, Reason: "decode container", Err: err}
	}
	return nc, nil
}

func gunzip(key string, data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &models.FormatError{Key: key, Reason: "decompress", Err: err}
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, &models.FormatError{Key: key, Reason: "decompress", Err: err}
	}
	return out, nil
}

// maybeGunzip decompresses when the payload carries the gzip magic bytes.
// The grid artifact is published both plain and compressed depending on
// mirror, so the loader accepts either.
func maybeGunzip(key string, data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return gunzip(key, data)
	}
	return data, nil
}

// grid2D extracts a variable's values as a 2-D float64 array. The dataset
// stores grids as float32 or float64; anything else is a format defect.
func grid2D(key, name string, v *api.Variable) ([][]float64, error) {
	switch vals := v.Values.(type) {
	case [][]float64:
		return vals, nil
	case [][]float32:
		out := make([][]float64, len(vals))
		for i, row := range vals {
			out[i] = make([]float64, len(row))
			for j, f := range row {
				out[i][j] = float64(f)
			}
		}
		return out, nil
	default:
		return nil, &models.FormatError{
			Key:    key,
			Reason: fmt.Sprintf("variable %s is %T, want a 2-D float array", name, v.Values),
		}
	}
}

// unitsOf returns a variable's units attribute, or "" when absent.
func unitsOf(v *api.Variable) string {
	if v.Attributes == nil {
		return ""
	}
	val, has := v.Attributes.Get("units")
	if !has {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
