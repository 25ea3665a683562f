package mdl

import (
	"fmt"
	"math"
	"strings"
)

// Method names accepted by ParseMethod.
const (
	MethodLogistic       = "logistic"
	MethodTanh           = "tanh"
	MethodSoftmax        = "softmax"
	MethodEntropy        = "entropy"
	MethodEntropyTanh    = "entropy-tanh"
	MethodEntropySoftmax = "entropy-softmax"
)

// Transform maps a signed difference into a probability in (0, 1).
type Transform interface {
	Probability(diff float64) float64
	Name() string
}

// Logistic is p = 1/(1+exp(−diff)).
type Logistic struct{}

// Probability implements Transform.
func (Logistic) Probability(diff float64) float64 {
	return 1 / (1 + math.Exp(-diff))
}

// Name implements Transform.
func (Logistic) Name() string { return MethodLogistic }

// Tanh is p = (tanh(diff)+1)/2.
type Tanh struct{}

// Probability implements Transform.
func (Tanh) Probability(diff float64) float64 {
	return (math.Tanh(diff) + 1) / 2
}

// Name implements Transform.
func (Tanh) Name() string { return MethodTanh }

// Softmax is the second component of softmax([0, diff]).
type Softmax struct{}

// Probability implements Transform.
func (Softmax) Probability(diff float64) float64 {
	// Shift by the max logit so exp never overflows.
	hi := math.Max(0, diff)
	e0 := math.Exp(-hi)
	e1 := math.Exp(diff - hi)

	return e1 / (e0 + e1)
}

// Name implements Transform.
func (Softmax) Name() string { return MethodSoftmax }

// Methods returns all method names in a stable order.
func Methods() []string {
	return []string{
		MethodLogistic, MethodTanh, MethodSoftmax,
		MethodEntropy, MethodEntropyTanh, MethodEntropySoftmax,
	}
}

// ParseMethod resolves a method name and direction into a Model.
func ParseMethod(method string, direction Direction) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodLogistic, "":
		return New(Logistic{}, Loss, direction), nil
	case MethodTanh:
		return New(Tanh{}, Loss, direction), nil
	case MethodSoftmax:
		return New(Softmax{}, Loss, direction), nil
	case MethodEntropy:
		return New(Logistic{}, Entropy, direction), nil
	case MethodEntropyTanh:
		return New(Tanh{}, Entropy, direction), nil
	case MethodEntropySoftmax:
		return New(Softmax{}, Entropy, direction), nil
	default:
		return Model{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownMethod, method, strings.Join(Methods(), ", "))
	}
}
