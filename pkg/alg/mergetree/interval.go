package mergetree

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoIntervals indicates Build was called with an empty sequence.
	ErrNoIntervals = errors.New("mergetree: at least one interval is required")
	// ErrShortInterval indicates an interval without values.
	ErrShortInterval = errors.New("mergetree: interval must hold at least one value")
	// ErrLabelMismatch indicates labels and values differ in length.
	ErrLabelMismatch = errors.New("mergetree: labels and values must have equal length")
	// ErrInvariant is wrapped by every tree invariant violation.
	ErrInvariant = errors.New("mergetree: tree invariant violated")
	// ErrOneChild indicates an internal node with exactly one child.
	ErrOneChild = fmt.Errorf("%w: node has exactly one child", ErrInvariant)
	// ErrSpanMismatch indicates a node whose span differs from its children's union.
	ErrSpanMismatch = fmt.Errorf("%w: node span does not match its children", ErrInvariant)
)

// Interval is a contiguous run of the original series. Adjacent intervals
// share their boundary point: the last value of one is the first value of the
// next.
type Interval struct {
	// Values holds the points of the interval in order.
	Values []float64
	// Labels optionally holds one time label per value. Empty when the series
	// carries no labels.
	Labels []string
}

// NewInterval validates and returns an interval.
func NewInterval(values []float64, labels []string) (Interval, error) {
	if len(values) == 0 {
		return Interval{}, ErrShortInterval
	}

	if len(labels) != 0 && len(labels) != len(values) {
		return Interval{}, fmt.Errorf("%w: %d labels for %d values", ErrLabelMismatch, len(labels), len(values))
	}

	return Interval{Values: values, Labels: labels}, nil
}

// Len returns the number of values.
func (iv Interval) Len() int {
	return len(iv.Values)
}

// First returns the first value.
func (iv Interval) First() float64 {
	return iv.Values[0]
}

// Last returns the last value.
func (iv Interval) Last() float64 {
	return iv.Values[len(iv.Values)-1]
}

// Start returns the first time label, or "" when the interval is unlabeled.
func (iv Interval) Start() string {
	if len(iv.Labels) == 0 {
		return ""
	}

	return iv.Labels[0]
}

// End returns the last time label, or "" when the interval is unlabeled.
func (iv Interval) End() string {
	if len(iv.Labels) == 0 {
		return ""
	}

	return iv.Labels[len(iv.Labels)-1]
}

// Merge concatenates two adjacent intervals, dropping the duplicated boundary
// value, so the result holds Len(a)+Len(b)−1 values.
func Merge(left, right Interval) Interval {
	values := make([]float64, 0, left.Len()+right.Len()-1)
	values = append(values, left.Values...)
	values = append(values, right.Values[1:]...)

	var labels []string

	if len(left.Labels) > 0 && len(right.Labels) > 0 {
		labels = make([]string, 0, len(values))
		labels = append(labels, left.Labels...)
		labels = append(labels, right.Labels[1:]...)
	}

	return Interval{Values: values, Labels: labels}
}
