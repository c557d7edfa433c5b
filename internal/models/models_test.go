package models

import (
	"strings"
	"testing"
)

func TestSelectionKeyPrefix(t *testing.T) {
	tests := []struct {
		name string
		key  SelectionKey
		want string
	}{
		{
			name: "zero-pads month and day",
			key:  SelectionKey{Category: "rain_rate", Year: 2010, Month: 1, Day: 2},
			want: "rain_rate/2010/01/02/",
		},
		{
			name: "double digit month and day unchanged",
			key:  SelectionKey{Category: "rain_rate", Year: 2010, Month: 12, Day: 31},
			want: "rain_rate/2010/12/31/",
		},
		{
			name: "category passes through verbatim",
			key:  SelectionKey{Category: "snow_depth", Year: 1999, Month: 6, Day: 9},
			want: "snow_depth/1999/06/09/",
		},
	}

	for _, tt := range tests {
		if got := tt.key.Prefix(); got != tt.want {
			t.Errorf("%s: Prefix() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSelectionKeyKey(t *testing.T) {
	k := SelectionKey{Category: "rain_rate", Year: 2010, Month: 1, Day: 12, Time: "0730"}
	got, err := k.Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if want := "rain_rate/2010/01/12/0730"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if !k.SingleTime() {
		t.Error("SingleTime() = false with time set")
	}
}

func TestSelectionKeyKeyErrors(t *testing.T) {
	tests := []struct {
		name string
		time string
	}{
		{"empty time", ""},
		{"too short", "730"},
		{"non-numeric", "07a0"},
		{"invalid minute", "0761"},
		{"invalid hour", "2459"},
	}

	for _, tt := range tests {
		k := SelectionKey{Category: "rain_rate", Year: 2010, Month: 1, Day: 12, Time: tt.time}
		if _, err := k.Key(); err == nil {
			t.Errorf("%s: Key() error = nil, want error", tt.name)
		}
	}
}

func TestReferenceGridShape(t *testing.T) {
	g := &ReferenceGrid{
		Lat: [][]float64{{1, 2, 3}, {4, 5, 6}},
		Lon: [][]float64{{1, 2, 3}, {4, 5, 6}},
	}
	h, w := g.Shape()
	if h != 2 || w != 3 {
		t.Errorf("Shape() = (%d, %d), want (2, 3)", h, w)
	}

	empty := &ReferenceGrid{}
	h, w = empty.Shape()
	if h != 0 || w != 0 {
		t.Errorf("empty Shape() = (%d, %d), want (0, 0)", h, w)
	}
}

func TestErrorMessages(t *testing.T) {
	fe := &FetchError{Key: "rain_rate/2010/01/12/0730", Err: errBoom}
	if !strings.Contains(fe.Error(), "rain_rate/2010/01/12/0730") {
		t.Errorf("FetchError message missing key: %q", fe.Error())
	}

	fme := &FormatError{Key: "k", Reason: "variable rain not present"}
	if !strings.Contains(fme.Error(), "variable rain not present") {
		t.Errorf("FormatError message missing reason: %q", fme.Error())
	}
}

var errBoom = &FormatError{Reason: "boom"}
