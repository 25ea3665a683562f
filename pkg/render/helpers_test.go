package render_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

var (
	datedSeries = series.Series{
		Name: "sample",
		Labels: []string{
			"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
			"2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10",
		},
		Values: []float64{17, 37, 23, 20, 54, 14, 31, 27, 71, 3},
	}
	monotoneSeries = series.Series{Name: "monotone", Values: []float64{1, 2, 3, 4, 5, 6, 7, 8}}
)

func runFold(t *testing.T, ser series.Series, req fold.Request) *fold.Result {
	t.Helper()

	seg := fold.NewSegmenter(fold.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	res, err := seg.Run(context.Background(), ser, req)
	require.NoError(t, err)

	return res
}
