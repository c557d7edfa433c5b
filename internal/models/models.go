package models

import (
	"fmt"
	"regexp"
)

// SelectionKey identifies which samples a run aggregates: a variable
// category plus a calendar day, optionally narrowed to one time of day.
type SelectionKey struct {
	Category string
	Year     int
	Month    int
	Day      int
	Time     string // "HHMM", empty for full-day mode
}

var timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3])[0-5][0-9]$`)

// Prefix returns the storage key prefix covering every time-sliced sample
// for the selection's day, e.g. "rain_rate/2010/01/12/".
func (k SelectionKey) Prefix() string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/", k.Category, k.Year, k.Month, k.Day)
}

// Key returns the exact storage key for single-time mode. It is an error
// to call Key on a selection without a time of day.
func (k SelectionKey) Key() (string, error) {
	if k.Time == "" {
		return "", fmt.Errorf("selection %s has no time of day", k.Prefix())
	}
	if !timeRe.MatchString(k.Time) {
		return "", fmt.Errorf("invalid time of day %q (want HHMM)", k.Time)
	}
	return k.Prefix() + k.Time, nil
}

// SingleTime reports whether the selection names exactly one sample.
func (k SelectionKey) SingleTime() bool {
	return k.Time != ""
}

// ReferenceGrid holds the dataset's fixed coordinate arrays. All sample
// arrays in a run must match its shape exactly.
type ReferenceGrid struct {
	Lat [][]float64
	Lon [][]float64
}

// Shape returns the grid's (height, width).
func (g *ReferenceGrid) Shape() (int, int) {
	if len(g.Lat) == 0 {
		return 0, 0
	}
	return len(g.Lat), len(g.Lat[0])
}

// Sample is one time-sliced measurement decoded from a stored object.
// Negative values are the dataset's sentinel for "no data at this cell".
type Sample struct {
	Key    string
	Values [][]float64
	Units  string
}

// FetchError indicates the blob store was unreachable or an object could
// not be retrieved.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("fetch: %v", e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError indicates retrieved bytes could not be decoded into the
// expected structure: gzip or container corruption, a missing variable, or
// a shape that disagrees with the reference grid.
type FormatError struct {
	Key    string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Key == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Key, msg)
}

func (e *FormatError) Unwrap() error { return e.Err }
