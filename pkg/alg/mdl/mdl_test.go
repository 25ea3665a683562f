package mdl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func TestInfoLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		n        int
		expected float64
	}{
		{name: "zero", n: 0, expected: 0},
		{name: "one", n: 1, expected: 0.5},
		{name: "two", n: 2, expected: 1.584962500721156},
		{name: "three", n: 3, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.expected, InfoLength(tt.n), delta)
		})
	}
}

func TestInfoLength_Superadditive(t *testing.T) {
	t.Parallel()

	for n := 2; n < 64; n++ {
		assert.Greater(t, InfoLength(n), InfoLength(n-1)+InfoLength(1))
	}
}

func TestDirection_Diff(t *testing.T) {
	t.Parallel()

	values := []float64{3, 10, 7}

	assert.InDelta(t, 4.0, Rising.Diff(values), delta)
	assert.InDelta(t, -4.0, Falling.Diff(values), delta)
	assert.InDelta(t, 0.0, Rising.Diff(nil), delta)
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	d, err := ParseDirection("falling")
	require.NoError(t, err)
	assert.Equal(t, Falling, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Rising, d)

	_, err = ParseDirection("sideways")
	require.ErrorIs(t, err, ErrUnknownDirection)
}

func TestTransforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		transform Transform
		diff      float64
		expected  float64
	}{
		{name: "logistic_zero", transform: Logistic{}, diff: 0, expected: 0.5},
		{name: "logistic_one", transform: Logistic{}, diff: 1, expected: 0.7310585786300049},
		{name: "tanh_zero", transform: Tanh{}, diff: 0, expected: 0.5},
		{name: "tanh_one", transform: Tanh{}, diff: 1, expected: 0.8807970779778824},
		{name: "softmax_zero", transform: Softmax{}, diff: 0, expected: 0.5},
		{name: "softmax_one", transform: Softmax{}, diff: 1, expected: 0.7310585786300049},
		{name: "softmax_large", transform: Softmax{}, diff: 1000, expected: 1},
		{name: "softmax_very_negative", transform: Softmax{}, diff: -1000, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.transform.Probability(tt.diff)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.expected, got, delta)
		})
	}
}

func TestForm_Fit(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -0.25, Loss.Fit(0.25), delta)
	assert.InDelta(t, 0.5, Entropy.Fit(0.25), delta)
	assert.InDelta(t, 0.0, Entropy.Fit(1), delta)

	// 0·log2(0) is defined as 0 rather than NaN.
	got := Entropy.Fit(0)
	assert.False(t, math.IsNaN(got))
	assert.InDelta(t, 0.0, got, delta)
}

func TestModel_Cost(t *testing.T) {
	t.Parallel()

	m := Default()

	got, err := m.Cost([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.7041654227432738, got, delta)

	entropy, err := ParseMethod(MethodEntropy, Rising)
	require.NoError(t, err)

	got, err = entropy.Cost([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.584962500721156+0.16129016228541967, got, delta)
}

func TestModel_Cost_UsesLeafCountNotValueLength(t *testing.T) {
	t.Parallel()

	m := Default()

	a, err := m.Cost([]float64{1, 5, 9}, 2)
	require.NoError(t, err)

	b, err := m.Cost([]float64{1, 5, 9}, 3)
	require.NoError(t, err)

	assert.InDelta(t, InfoLength(3)-InfoLength(2), b-a, delta)
}

func TestModel_Cost_Errors(t *testing.T) {
	t.Parallel()

	m := Default()

	_, err := m.Cost(nil, 1)
	require.ErrorIs(t, err, ErrEmptyInterval)

	_, err = m.Cost([]float64{1, 2}, 0)
	require.ErrorIs(t, err, ErrEmptyInterval)

	_, err = m.Cost([]float64{math.NaN(), 2}, 1)
	require.ErrorIs(t, err, ErrNonFinite)

	_, err = m.Cost([]float64{1, math.Inf(1)}, 1)
	require.ErrorIs(t, err, ErrNonFinite)
}

func TestModel_DirectionMirrors(t *testing.T) {
	t.Parallel()

	up := New(Logistic{}, Loss, Rising)
	down := New(Logistic{}, Loss, Falling)
	values := []float64{2, 6}

	assert.InDelta(t, 1.0, up.Probability(values)+down.Probability(values), delta)
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	for _, name := range Methods() {
		m, err := ParseMethod(name, Falling)
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())
		assert.Equal(t, Falling, m.Direction)
	}

	m, err := ParseMethod("", Rising)
	require.NoError(t, err)
	assert.Equal(t, MethodLogistic, m.Name())

	_, err = ParseMethod("gaussian", Rising)
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestModel_ZeroValueUsesLogistic(t *testing.T) {
	t.Parallel()

	var m Model

	assert.InDelta(t, 0.5, m.Probability([]float64{4, 4}), delta)
	assert.Equal(t, MethodLogistic, m.Name())
}
