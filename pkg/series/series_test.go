package series_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := series.New("max", []string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "a", s.First())
	assert.Equal(t, "b", s.Last())

	_, err = series.New("max", []string{"a"}, []float64{1, 2})
	require.ErrorIs(t, err, series.ErrLengthMismatch)

	_, err = series.New("max", nil, []float64{1, math.Inf(1)})
	require.ErrorIs(t, err, series.ErrNonFinite)

	unlabeled, err := series.New("v", nil, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, "2", unlabeled.Label(2))
	assert.Empty(t, series.Series{}.First())
}

func TestPairs(t *testing.T) {
	t.Parallel()

	s, err := series.New("v", []string{"d0", "d1", "d2", "d3"}, []float64{17, 37, 23, 20})
	require.NoError(t, err)

	intervals, err := series.Pairs(s)
	require.NoError(t, err)
	require.Len(t, intervals, 3)

	assert.Equal(t, []float64{17, 37}, intervals[0].Values)
	assert.Equal(t, []float64{37, 23}, intervals[1].Values)
	assert.Equal(t, []float64{23, 20}, intervals[2].Values)
	assert.Equal(t, []string{"d2", "d3"}, intervals[2].Labels)
}

func TestPairs_TooFewPoints(t *testing.T) {
	t.Parallel()

	for _, values := range [][]float64{nil, {1}} {
		_, err := series.Pairs(series.Series{Values: values})
		require.ErrorIs(t, err, series.ErrTooFewPoints)
	}
}

func TestChunks(t *testing.T) {
	t.Parallel()

	values := []float64{0, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name     string
		size     int
		expected [][]float64
	}{
		{name: "exact", size: 8, expected: [][]float64{values}},
		{name: "short tail", size: 4, expected: [][]float64{{0, 1, 2, 3}, {3, 4, 5, 6}, {6, 7}}},
		{name: "even split", size: 3, expected: [][]float64{{0, 1, 2}, {2, 3, 4}, {4, 5, 6}, {6, 7}}},
		{name: "oversized", size: 20, expected: [][]float64{values}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			intervals, err := series.Chunks(series.Series{Values: values}, tt.size)
			require.NoError(t, err)
			require.Len(t, intervals, len(tt.expected))

			for i, iv := range intervals {
				assert.Equal(t, tt.expected[i], iv.Values)
			}
		})
	}

	_, err := series.Chunks(series.Series{Values: values}, 1)
	require.ErrorIs(t, err, series.ErrChunkSize)
}

func TestChunks_IntervalsDoNotAlias(t *testing.T) {
	t.Parallel()

	s := series.Series{Values: []float64{1, 2, 3, 4, 5}}

	intervals, err := series.Chunks(s, 3)
	require.NoError(t, err)

	grown := append(intervals[0].Values, 99)
	assert.Equal(t, []float64{1, 2, 3, 99}, grown)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, s.Values)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	s, err := series.New("v", []string{"a", "b", "c"}, []float64{1, -2, 3})
	require.NoError(t, err)

	positive := series.Filter(s, func(_ string, v float64) bool { return v > 0 })
	assert.Equal(t, []float64{1, 3}, positive.Values)
	assert.Equal(t, []string{"a", "c"}, positive.Labels)
	assert.Equal(t, "v", positive.Name)
}

func TestFilterRange(t *testing.T) {
	t.Parallel()

	s, err := series.New("max",
		[]string{"2019-12-31", "2020-01-01", "2021-06-15", "2023-12-31", "2024-01-01"},
		[]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	got, err := series.FilterRange(s, "2020-01-01", "2023-12-31", "")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, got.Values)

	open, err := series.FilterRange(s, "", "2020-01-01", series.DefaultDateLayout)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, open.Values)

	_, err = series.FilterRange(s, "01/01/2020", "", "")
	require.ErrorIs(t, err, series.ErrBadLabel)

	bad, err := series.New("max", []string{"2020-01-01", "yesterday"}, []float64{1, 2})
	require.NoError(t, err)

	_, err = series.FilterRange(bad, "2020-01-01", "", "")
	require.ErrorIs(t, err, series.ErrBadLabel)
}
