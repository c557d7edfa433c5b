package ingest

// Test fixtures are real NetCDF classic (CDF-1) files built in memory, so
// the fetch path is exercised end to end through the container decoder.

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"
)

const (
	ncDimension = 0x0A
	ncVariable  = 0x0B
	ncAttribute = 0x0C
	ncChar      = 2
	ncFloat     = 5
)

type cdfVar struct {
	name   string
	units  string
	values [][]float32
}

// encodeCDF serializes variables sharing one 2-D shape into a CDF-1 file.
func encodeCDF(t *testing.T, vars ...cdfVar) []byte {
	t.Helper()
	if len(vars) == 0 || len(vars[0].values) == 0 {
		t.Fatal("encodeCDF needs at least one non-empty variable")
	}
	h := len(vars[0].values)
	w := len(vars[0].values[0])
	for _, v := range vars {
		if len(v.values) != h || len(v.values[0]) != w {
			t.Fatalf("encodeCDF: variable %s shape differs from (%d, %d)", v.name, h, w)
		}
	}

	build := func(begins []uint32) []byte {
		var b bytes.Buffer
		be := func(v uint32) { binary.Write(&b, binary.BigEndian, v) }
		writeName := func(s string) {
			be(uint32(len(s)))
			b.WriteString(s)
			for b.Len()%4 != 0 {
				b.WriteByte(0)
			}
		}

		b.WriteString("CDF\x01")
		be(0) // numrecs

		be(ncDimension)
		be(2)
		writeName("y")
		be(uint32(h))
		writeName("x")
		be(uint32(w))

		// no global attributes
		be(0)
		be(0)

		be(ncVariable)
		be(uint32(len(vars)))
		for i, v := range vars {
			writeName(v.name)
			be(2) // rank
			be(0) // dim y
			be(1) // dim x
			if v.units != "" {
				be(ncAttribute)
				be(1)
				writeName("units")
				be(ncChar)
				be(uint32(len(v.units)))
				b.WriteString(v.units)
				for b.Len()%4 != 0 {
					b.WriteByte(0)
				}
			} else {
				be(0)
				be(0)
			}
			be(ncFloat)
			be(uint32(h * w * 4))
			be(begins[i])
		}
		return b.Bytes()
	}

	header := build(make([]uint32, len(vars)))
	begins := make([]uint32, len(vars))
	off := uint32(len(header))
	for i := range vars {
		begins[i] = off
		off += uint32(h * w * 4)
	}

	var out bytes.Buffer
	out.Write(build(begins))
	for _, v := range vars {
		for _, row := range v.values {
			for _, f := range row {
				binary.Write(&out, binary.BigEndian, f)
			}
		}
	}
	return out.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// sampleObject builds a gzipped sample container holding one rain array.
func sampleObject(t *testing.T, units string, values [][]float32) []byte {
	t.Helper()
	return gzipBytes(t, encodeCDF(t, cdfVar{name: "rain", units: units, values: values}))
}

// gridObject builds the gzipped reference grid container.
func gridObject(t *testing.T, lat, lon [][]float32) []byte {
	t.Helper()
	return gzipBytes(t, encodeCDF(t,
		cdfVar{name: "latitude", units: "degrees_north", values: lat},
		cdfVar{name: "longitude", units: "degrees_east", values: lon},
	))
}
