// Package series loads, filters and slices the raw time series that the
// segmentation pipeline folds.
package series

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

// DefaultDateLayout parses date labels such as 2023-12-31.
const DefaultDateLayout = time.DateOnly

// Sentinel errors.
var (
	// ErrTooFewPoints indicates a series with fewer than two points.
	ErrTooFewPoints = errors.New("series: at least two points are required")
	// ErrNonFinite indicates a NaN or infinite value.
	ErrNonFinite = errors.New("series: value is not finite")
	// ErrLengthMismatch indicates labels and values of different lengths.
	ErrLengthMismatch = errors.New("series: labels and values differ in length")
	// ErrChunkSize indicates a chunk size below two.
	ErrChunkSize = errors.New("series: chunk size must be at least 2")
	// ErrNoHeader indicates a CSV document without a header row.
	ErrNoHeader = errors.New("series: csv input has no header row")
	// ErrColumnNotFound indicates a requested column is missing from the input.
	ErrColumnNotFound = errors.New("series: column not found")
	// ErrBadValue indicates a cell that is not a number.
	ErrBadValue = errors.New("series: cell is not a number")
	// ErrBadLabel indicates a time label that does not match the date layout.
	ErrBadLabel = errors.New("series: time label does not match layout")
	// ErrSchema indicates JSON input that does not match the series schema.
	ErrSchema = errors.New("series: input does not match schema")
)

// Series is an ordered run of values with optional time labels.
type Series struct {
	Name   string
	Labels []string
	Values []float64
}

// New validates and returns a series. Labels may be nil.
func New(name string, labels []string, values []float64) (Series, error) {
	if len(labels) != 0 && len(labels) != len(values) {
		return Series{}, fmt.Errorf("%w: %d labels, %d values", ErrLengthMismatch, len(labels), len(values))
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Series{}, fmt.Errorf("%w: point %d", ErrNonFinite, i)
		}
	}

	return Series{Name: name, Labels: labels, Values: values}, nil
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Values)
}

// Label returns the time label of point i, or its index when unlabeled.
func (s Series) Label(i int) string {
	if len(s.Labels) == 0 {
		return fmt.Sprintf("%d", i)
	}

	return s.Labels[i]
}

// First returns the first time label.
func (s Series) First() string {
	if s.Len() == 0 {
		return ""
	}

	return s.Label(0)
}

// Last returns the last time label.
func (s Series) Last() string {
	if s.Len() == 0 {
		return ""
	}

	return s.Label(s.Len() - 1)
}

// Pairs splits s into overlapping two-point intervals, one per adjacent pair.
func Pairs(s Series) ([]mergetree.Interval, error) {
	return Chunks(s, 2)
}

// Chunks splits s into intervals of size points where consecutive intervals
// share their boundary point. The final interval may be shorter but always
// holds at least two points.
func Chunks(s Series, size int) ([]mergetree.Interval, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrChunkSize, size)
	}

	n := s.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}

	step := size - 1
	out := make([]mergetree.Interval, 0, (n-2)/step+1)

	for start := 0; start < n-1; start += step {
		end := min(start+size, n)

		iv := mergetree.Interval{Values: s.Values[start:end:end]}
		if len(s.Labels) > 0 {
			iv.Labels = s.Labels[start:end:end]
		}

		out = append(out, iv)
	}

	return out, nil
}

// Predicate reports whether the point with the given label and value is kept.
type Predicate func(label string, value float64) bool

// Filter returns the points of s accepted by keep, in order.
func Filter(s Series, keep Predicate) Series {
	out := Series{Name: s.Name}

	for i, v := range s.Values {
		label := s.Label(i)
		if !keep(label, v) {
			continue
		}

		if len(s.Labels) > 0 {
			out.Labels = append(out.Labels, label)
		}

		out.Values = append(out.Values, v)
	}

	return out
}

// FilterRange keeps points whose label, parsed with layout, lies within
// [from, to] inclusive. Empty bounds are open. An empty layout means
// DefaultDateLayout.
func FilterRange(s Series, from, to, layout string) (Series, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}

	lo, hi, err := parseBounds(from, to, layout)
	if err != nil {
		return Series{}, err
	}

	var parseErr error

	out := Filter(s, func(label string, _ float64) bool {
		if parseErr != nil {
			return false
		}

		ts, tErr := time.Parse(layout, label)
		if tErr != nil {
			parseErr = fmt.Errorf("%w: %q", ErrBadLabel, label)

			return false
		}

		return (lo.IsZero() || !ts.Before(lo)) && (hi.IsZero() || !ts.After(hi))
	})

	if parseErr != nil {
		return Series{}, parseErr
	}

	return out, nil
}

func parseBounds(from, to, layout string) (lo, hi time.Time, err error) {
	if from != "" {
		lo, err = time.Parse(layout, from)
		if err != nil {
			return lo, hi, fmt.Errorf("%w: from %q", ErrBadLabel, from)
		}
	}

	if to != "" {
		hi, err = time.Parse(layout, to)
		if err != nil {
			return lo, hi, fmt.Errorf("%w: to %q", ErrBadLabel, to)
		}
	}

	return lo, hi, nil
}
