package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/mhutcheson/raingrid/internal/accum"
	"github.com/mhutcheson/raingrid/internal/models"
)

func finalizedAggregate(t *testing.T, values [][]float64) *accum.Aggregate {
	t.Helper()
	a := accum.New(len(values), len(values[0]))
	if err := a.Fold(&models.Sample{Key: "s", Values: values}); err != nil {
		t.Fatalf("Fold: %v", err)
	}
	a.Finalize()
	return a
}

func TestDownsample(t *testing.T) {
	cells := [][]float64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	}
	got := Downsample(cells, 2)
	want := [][]float64{{1, 2}, {3, 4}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("block (%d, %d) = %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestDownsamplePartialEdgeBlocks(t *testing.T) {
	cells := [][]float64{
		{1, 1, 5},
		{1, 1, 7},
		{2, 4, 9},
	}
	got := Downsample(cells, 2)
	if len(got) != 2 || len(got[0]) != 2 {
		t.Fatalf("shape = (%d, %d), want (2, 2)", len(got), len(got[0]))
	}
	if got[0][0] != 1 {
		t.Errorf("full block = %v, want 1", got[0][0])
	}
	if got[0][1] != 6 { // mean of 5, 7
		t.Errorf("right edge block = %v, want 6", got[0][1])
	}
	if math.Abs(got[1][0]-3) > 1e-12 { // mean of 2, 4
		t.Errorf("bottom edge block = %v, want 3", got[1][0])
	}
	if got[1][1] != 9 { // single corner cell
		t.Errorf("corner block = %v, want 9", got[1][1])
	}
}

func TestDownsampleFactorOneIsIdentity(t *testing.T) {
	cells := [][]float64{{1, 2}, {3, 4}}
	got := Downsample(cells, 1)
	for i := range cells {
		for j := range cells[i] {
			if got[i][j] != cells[i][j] {
				t.Errorf("cell (%d, %d) = %v, want %v", i, j, got[i][j], cells[i][j])
			}
		}
	}
}

func TestDownsampleGridMatchesAggregate(t *testing.T) {
	grid := &models.ReferenceGrid{
		Lat: [][]float64{
			{-36.5, -36.5, -36.5, -36.5},
			{-36.6, -36.6, -36.6, -36.6},
			{-36.7, -36.7, -36.7, -36.7},
			{-36.8, -36.8, -36.8, -36.8},
		},
		Lon: [][]float64{
			{146.9, 147.0, 147.1, 147.2},
			{146.9, 147.0, 147.1, 147.2},
			{146.9, 147.0, 147.1, 147.2},
			{146.9, 147.0, 147.1, 147.2},
		},
	}
	a := finalizedAggregate(t, make2D(4, 4, 1))

	coords := DownsampleGrid(grid, 2)
	cells := Downsample(a.Cells(), 2)

	if len(coords.Lat) != len(cells) || len(coords.Lat[0]) != len(cells[0]) {
		t.Fatalf("coordinate shape (%d, %d) does not match cell shape (%d, %d)",
			len(coords.Lat), len(coords.Lat[0]), len(cells), len(cells[0]))
	}
	if got := coords.Lat[0][0]; math.Abs(got-(-36.55)) > 1e-12 {
		t.Errorf("Lat[0][0] = %v, want -36.55 (block mean)", got)
	}
	if got := coords.Lon[0][1]; math.Abs(got-147.15) > 1e-12 {
		t.Errorf("Lon[0][1] = %v, want 147.15 (block mean)", got)
	}
}

func make2D(h, w int, v float64) [][]float64 {
	out := make([][]float64, h)
	for i := range out {
		out[i] = make([]float64, w)
		for j := range out[i] {
			out[i][j] = v
		}
	}
	return out
}

func TestMapDimensions(t *testing.T) {
	a := finalizedAggregate(t, [][]float64{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
	})
	img, err := Map(a, Options{Cell: 2, Scale: 3})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 6 || b.Dy() != 3 {
		t.Errorf("bounds = %dx%d, want 6x3", b.Dx(), b.Dy())
	}
}

func TestMapRequiresFinalized(t *testing.T) {
	a := accum.New(2, 2)
	if _, err := Map(a, Options{}); err == nil {
		t.Fatal("Map on accumulating aggregate: error = nil")
	}
}

func TestMapDryCellsUseDryColor(t *testing.T) {
	a := finalizedAggregate(t, [][]float64{{0, 10}, {0, 0}})
	img, err := Map(a, Options{Cell: 1, Scale: 1})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	dr, dg, db, _ := dryColor.RGBA()
	if r != dr || g != dg || b != db {
		t.Errorf("dry cell color = (%d, %d, %d), want dryColor", r>>8, g>>8, b>>8)
	}

	wr, wg, wb, _ := img.At(1, 0).RGBA()
	if wr == dr && wg == dg && wb == db {
		t.Error("wet cell rendered with dry color")
	}
}

func TestExtent(t *testing.T) {
	grid := &models.ReferenceGrid{
		Lat: [][]float64{{-36.5, -36.5}, {-36.7, -36.7}},
		Lon: [][]float64{{146.9, 147.1}, {146.9, 147.1}},
	}
	latMin, latMax, lonMin, lonMax := Extent(grid)
	if latMin != -36.7 || latMax != -36.5 {
		t.Errorf("lat extent = %v..%v, want -36.7..-36.5", latMin, latMax)
	}
	if lonMin != 146.9 || lonMax != 147.1 {
		t.Errorf("lon extent = %v..%v, want 146.9..147.1", lonMin, lonMax)
	}
}

func TestWritePNG(t *testing.T) {
	a := finalizedAggregate(t, [][]float64{{0, 1}, {2, 3}})
	img, err := Map(a, Options{Cell: 1, Scale: 2})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("decoded width = %d, want 4", decoded.Bounds().Dx())
	}
}
