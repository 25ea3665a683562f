package series

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
)

// Influx defaults.
const (
	DefaultInfluxField = "_value"
	DefaultInfluxStart = "-30d"
)

// ErrInfluxConfig indicates an incomplete InfluxDB source configuration.
var ErrInfluxConfig = errors.New("series: incomplete influx configuration")

// InfluxConfig selects one field of one measurement from an InfluxDB 2 bucket.
type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	// Field is the _field to fold; DefaultInfluxField keeps every field.
	Field string
	// Start and Stop are Flux range bounds: RFC3339 times or relative
	// durations such as -7d. An empty Stop means now.
	Start string
	Stop  string
	// Layout formats record times into labels; empty means DefaultDateLayout.
	Layout string
}

// Validate reports missing required settings.
func (c InfluxConfig) Validate() error {
	var missing []string

	for name, v := range map[string]string{
		"url": c.URL, "org": c.Org, "bucket": c.Bucket, "measurement": c.Measurement,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	slices.Sort(missing)

	return fmt.Errorf("%w: missing %s", ErrInfluxConfig, strings.Join(missing, ", "))
}

// FluxQuery renders the Flux query for c.
func FluxQuery(c InfluxConfig) string {
	start := c.Start
	if start == "" {
		start = DefaultInfluxStart
	}

	rng := "start: " + start
	if c.Stop != "" {
		rng += ", stop: " + c.Stop
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "from(bucket: %s)\n", strconv.Quote(c.Bucket))
	fmt.Fprintf(&sb, "  |> range(%s)\n", rng)
	fmt.Fprintf(&sb, "  |> filter(fn: (r) => r._measurement == %s)\n", strconv.Quote(c.Measurement))

	if c.Field != "" && c.Field != DefaultInfluxField {
		fmt.Fprintf(&sb, "  |> filter(fn: (r) => r._field == %s)\n", strconv.Quote(c.Field))
	}

	sb.WriteString(`  |> sort(columns: ["_time"], desc: false)`)

	return sb.String()
}

// InfluxSource reads a series from InfluxDB.
type InfluxSource struct {
	cfg    InfluxConfig
	client influxdb2.Client
	logger *slog.Logger
}

// NewInfluxSource validates cfg and opens a client. A nil logger means slog.Default().
func NewInfluxSource(cfg InfluxConfig, logger *slog.Logger) (*InfluxSource, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &InfluxSource{
		cfg:    cfg,
		client: influxdb2.NewClient(cfg.URL, cfg.Token),
		logger: logger,
	}, nil
}

// Close releases the client.
func (s *InfluxSource) Close() {
	s.client.Close()
}

// Load runs the query and collects the records in time order.
func (s *InfluxSource) Load(ctx context.Context) (Series, error) {
	flux := FluxQuery(s.cfg)

	s.logger.InfoContext(ctx, "querying influx",
		"bucket", s.cfg.Bucket, "measurement", s.cfg.Measurement, "field", s.cfg.Field)

	result, err := s.client.QueryAPI(s.cfg.Org).Query(ctx, flux)
	if err != nil {
		return Series{}, fmt.Errorf("influx query failed: %w", err)
	}
	defer result.Close()

	out, err := collectRecords(result, s.seriesName(), s.cfg.Layout)
	if err != nil {
		return Series{}, err
	}

	s.logger.InfoContext(ctx, "loaded influx series", "points", out.Len(), "from", out.First(), "to", out.Last())

	return out, nil
}

func (s *InfluxSource) seriesName() string {
	if s.cfg.Field != "" && s.cfg.Field != DefaultInfluxField {
		return s.cfg.Field
	}

	return s.cfg.Measurement
}

// recordCursor is the iteration surface of *api.QueryTableResult.
type recordCursor interface {
	Next() bool
	Record() *query.FluxRecord
	Err() error
}

func collectRecords(cursor recordCursor, name, layout string) (Series, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}

	var (
		labels []string
		values []float64
	)

	for cursor.Next() {
		record := cursor.Record()

		v, ok := toFloat(record.Value())
		if !ok {
			return Series{}, fmt.Errorf("%w: influx value %v at %s", ErrBadValue, record.Value(), record.Time())
		}

		labels = append(labels, record.Time().Format(layout))
		values = append(values, v)
	}

	if cursor.Err() != nil {
		return Series{}, fmt.Errorf("error reading influx results: %w", cursor.Err())
	}

	return New(name, labels, values)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
