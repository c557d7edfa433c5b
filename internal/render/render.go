// Package render turns a finalized aggregate into a choropleth PNG.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/mhutcheson/raingrid/internal/accum"
	"github.com/mhutcheson/raingrid/internal/models"
)

// Options controls rendering. Cell is the downsampling factor applied to
// the aggregate before coloring; Scale is output pixels per rendered cell.
type Options struct {
	Cell  int
	Scale int
}

func (o Options) withDefaults() Options {
	if o.Cell < 1 {
		o.Cell = 1
	}
	if o.Scale < 1 {
		o.Scale = 1
	}
	return o
}

// Downsample reduces a 2-D array by block-averaging factor x factor cells.
// Edge blocks average over however many cells remain. It applies to the
// aggregate and to the coordinate grids alike, keeping them aligned.
func Downsample(cells [][]float64, factor int) [][]float64 {
	if factor < 1 {
		factor = 1
	}
	h := len(cells)
	if h == 0 {
		return nil
	}
	w := len(cells[0])
	oh := (h + factor - 1) / factor
	ow := (w + factor - 1) / factor

	out := make([][]float64, oh)
	for bi := 0; bi < oh; bi++ {
		out[bi] = make([]float64, ow)
		for bj := 0; bj < ow; bj++ {
			sum, n := 0.0, 0
			for i := bi * factor; i < (bi+1)*factor && i < h; i++ {
				for j := bj * factor; j < (bj+1)*factor && j < w; j++ {
					sum += cells[i][j]
					n++
				}
			}
			out[bi][bj] = sum / float64(n)
		}
	}
	return out
}

// DownsampleGrid block-averages the coordinate grids by the same factor
// applied to the aggregate, so each rendered cell keeps a matching
// lat/lon center.
func DownsampleGrid(grid *models.ReferenceGrid, factor int) *models.ReferenceGrid {
	return &models.ReferenceGrid{
		Lat: Downsample(grid.Lat, factor),
		Lon: Downsample(grid.Lon, factor),
	}
}

// Map renders a finalized aggregate as a choropleth image.
func Map(agg *accum.Aggregate, opts Options) (image.Image, error) {
	if !agg.Finalized() {
		return nil, fmt.Errorf("render: aggregate is not finalized")
	}
	opts = opts.withDefaults()

	cells := Downsample(agg.Cells(), opts.Cell)
	if len(cells) == 0 {
		return nil, fmt.Errorf("render: aggregate is empty")
	}
	h := len(cells)
	w := len(cells[0])

	max := 0.0
	for _, row := range cells {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, row := range cells {
		for j, v := range row {
			small.SetRGBA(j, i, colorFor(v, max))
		}
	}

	if opts.Scale == 1 {
		return small, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*opts.Scale, h*opts.Scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes the rendered map.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Extent returns the coordinate bounds of a reference grid, for labelling
// rendered output.
func Extent(grid *models.ReferenceGrid) (latMin, latMax, lonMin, lonMax float64) {
	h, w := grid.Shape()
	if h == 0 || w == 0 {
		return 0, 0, 0, 0
	}
	latMin, latMax = grid.Lat[0][0], grid.Lat[0][0]
	lonMin, lonMax = grid.Lon[0][0], grid.Lon[0][0]
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if grid.Lat[i][j] < latMin {
				latMin = grid.Lat[i][j]
			}
			if grid.Lat[i][j] > latMax {
				latMax = grid.Lat[i][j]
			}
			if grid.Lon[i][j] < lonMin {
				lonMin = grid.Lon[i][j]
			}
			if grid.Lon[i][j] > lonMax {
				lonMax = grid.Lon[i][j]
			}
		}
	}
	return latMin, latMax, lonMin, lonMax
}
