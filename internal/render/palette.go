package render

import "image/color"

// Accumulation palette, light to deep. Stops are fractions of the
// aggregate's maximum so one day's light drizzle and another's deluge both
// use the full range.
var rainStops = []struct {
	Frac  float64
	Color color.RGBA
}{
	{0.02, color.RGBA{0xdb, 0xef, 0xf7, 0xff}}, // trace
	{0.05, color.RGBA{0xb5, 0xdd, 0xf0, 0xff}},
	{0.10, color.RGBA{0x8a, 0xc6, 0xe6, 0xff}},
	{0.20, color.RGBA{0x5c, 0xa8, 0xd8, 0xff}},
	{0.35, color.RGBA{0x35, 0x85, 0xc5, 0xff}},
	{0.50, color.RGBA{0x1f, 0x60, 0xa8, 0xff}},
	{0.70, color.RGBA{0x18, 0x3f, 0x85, 0xff}},
	{0.90, color.RGBA{0x2a, 0x22, 0x66, 0xff}},
	{1.01, color.RGBA{0x45, 0x12, 0x52, 0xff}}, // heaviest cells
}

// dryColor marks cells with no accumulated rain.
var dryColor = color.RGBA{0xf7, 0xf5, 0xf0, 0xff}

// colorFor maps an accumulated value to its palette stop.
func colorFor(v, max float64) color.RGBA {
	if v <= 0 || max <= 0 {
		return dryColor
	}
	frac := v / max
	for _, stop := range rainStops {
		if frac <= stop.Frac {
			return stop.Color
		}
	}
	return rainStops[len(rainStops)-1].Color
}
