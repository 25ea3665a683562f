// Package mdl provides the minimum-description-length cost model used to
// score candidate intervals of a time series.
//
// The descriptive length of an interval spanning n elementary intervals is
//
//	InfoLength(n) + fit
//
// where InfoLength(n) = n·log2(n+1)/2 penalizes large intervals and the fit
// term rewards intervals whose end-to-end value change confidently follows the
// configured direction.
package mdl

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors.
var (
	// ErrEmptyInterval indicates a cost was requested for an interval with no points.
	ErrEmptyInterval = errors.New("mdl: interval must span at least one elementary interval")
	// ErrNonFinite indicates the interval contains NaN or infinite values.
	ErrNonFinite = errors.New("mdl: interval values must be finite")
	// ErrUnknownMethod indicates an unrecognized method name.
	ErrUnknownMethod = errors.New("mdl: unknown method")
	// ErrUnknownDirection indicates an unrecognized direction name.
	ErrUnknownDirection = errors.New("mdl: unknown direction")
)

// infoLengthDivisor halves the structural cost term.
const infoLengthDivisor = 2

// InfoLength returns the structural cost n·log2(n+1)/2 of an interval made of
// n elementary intervals.
func InfoLength(n int) float64 {
	fn := float64(n)

	return fn * math.Log2(fn+1) / infoLengthDivisor
}

// Direction selects which way a value change is considered "expected".
type Direction int

const (
	// Rising scores last − first.
	Rising Direction = iota
	// Falling scores first − last.
	Falling
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Falling {
		return "falling"
	}

	return "rising"
}

// ParseDirection resolves a direction name.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "rising", "":
		return Rising, nil
	case "falling":
		return Falling, nil
	default:
		return Rising, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
	}
}

// Diff returns the signed end-to-end change of values in the given direction.
func (d Direction) Diff(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	diff := values[len(values)-1] - values[0]
	if d == Falling {
		return -diff
	}

	return diff
}

// Form selects how a probability turns into a fit cost.
type Form int

const (
	// Loss uses −p.
	Loss Form = iota
	// Entropy uses the Shannon term −p·log2(p).
	Entropy
)

// Fit converts a probability into a fit cost.
func (f Form) Fit(p float64) float64 {
	if f == Entropy {
		return -plog2p(p)
	}

	return -p
}

// plog2p returns p·log2(p), defined as 0 at p = 0.
func plog2p(p float64) float64 {
	if p <= 0 {
		return 0
	}

	return p * math.Log2(p)
}

// Model is a fully configured cost model. Construct it once (see ParseMethod)
// and pass it by value into the clusterer and the tree-cut selectors.
type Model struct {
	Transform Transform
	Form      Form
	Direction Direction
}

// New returns a Model with the given parts. A nil transform selects Logistic.
func New(transform Transform, form Form, direction Direction) Model {
	if transform == nil {
		transform = Logistic{}
	}

	return Model{Transform: transform, Form: form, Direction: direction}
}

// Default returns the logistic loss model for rising series.
func Default() Model {
	return New(Logistic{}, Loss, Rising)
}

// Probability returns the probability that values moved in the model direction.
func (m Model) Probability(values []float64) float64 {
	transform := m.Transform
	if transform == nil {
		transform = Logistic{}
	}

	return transform.Probability(m.Direction.Diff(values))
}

// FitCost returns the fit term for values.
func (m Model) FitCost(values []float64) float64 {
	return m.Form.Fit(m.Probability(values))
}

// Cost returns the descriptive length of an interval with the given values
// spanning n elementary intervals. n is the leaf count, not len(values).
func (m Model) Cost(values []float64, n int) (float64, error) {
	if n <= 0 || len(values) == 0 {
		return 0, ErrEmptyInterval
	}

	first, last := values[0], values[len(values)-1]
	if !finite(first) || !finite(last) {
		return 0, ErrNonFinite
	}

	return InfoLength(n) + m.FitCost(values), nil
}

// Name returns the canonical method name of the model (see ParseMethod).
func (m Model) Name() string {
	transform := "logistic"
	if m.Transform != nil {
		transform = m.Transform.Name()
	}

	if m.Form == Entropy {
		if transform == "logistic" {
			return MethodEntropy
		}

		return MethodEntropy + "-" + transform
	}

	return transform
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
