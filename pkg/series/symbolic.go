package series

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strconv"
)

// Symbolic transform defaults.
const (
	DefaultMaxUsers     = 30
	DefaultDropQuantile = 0.1
)

// ErrNoEvents indicates a symbolic transform with nothing left to aggregate.
var ErrNoEvents = errors.New("series: no events left after filtering")

// Event is one symbolic observation: a user in a status at a time.
type Event struct {
	Time   string
	User   string
	Status string
}

// SymbolicOptions tunes Symbolic.
type SymbolicOptions struct {
	// MaxUsers keeps only the first users in time order; 0 means DefaultMaxUsers.
	MaxUsers int
	// DropQuantile drops events at or below this time quantile; 0 means
	// DefaultDropQuantile, negative keeps every event.
	DropQuantile float64
}

// ReadEvents extracts events from the named columns of t.
func ReadEvents(t *Table, timeColumn, userColumn, statusColumn string) ([]Event, error) {
	times, err := t.Column(timeColumn)
	if err != nil {
		return nil, err
	}

	users, err := t.Column(userColumn)
	if err != nil {
		return nil, err
	}

	statuses, err := t.Column(statusColumn)
	if err != nil {
		return nil, err
	}

	events := make([]Event, len(times))
	for i := range times {
		events[i] = Event{Time: times[i], User: users[i], Status: statuses[i]}
	}

	return events, nil
}

// Symbolic turns a symbolic event sequence into a numeric series. Events are
// ordered by time, restricted to the first MaxUsers users and cut below the
// DropQuantile time quantile. Each remaining time becomes one point whose
// value sums, over its events, the number of identical (user, status) events
// at that time divided by the number of distinct users in the whole input.
func Symbolic(name string, events []Event, opts SymbolicOptions) (Series, error) {
	if len(events) == 0 {
		return Series{}, ErrNoEvents
	}

	maxUsers := opts.MaxUsers
	if maxUsers == 0 {
		maxUsers = DefaultMaxUsers
	}

	q := opts.DropQuantile
	if q == 0 {
		q = DefaultDropQuantile
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int { return compareTimes(a.Time, b.Time) })

	kept := keepFirstUsers(sorted, maxUsers)
	totalUsers := countUsers(sorted)

	if q > 0 {
		kept = dropBelowQuantile(kept, q)
	}

	if len(kept) == 0 {
		return Series{}, ErrNoEvents
	}

	var (
		labels []string
		values []float64
	)

	for start := 0; start < len(kept); {
		end := start
		counts := make(map[Event]int)

		for end < len(kept) && kept[end].Time == kept[start].Time {
			counts[Event{User: kept[end].User, Status: kept[end].Status}]++
			end++
		}

		var tp float64
		for _, c := range counts {
			// Each of the c identical events contributes c/totalUsers.
			tp += float64(c*c) / float64(totalUsers)
		}

		labels = append(labels, kept[start].Time)
		values = append(values, tp)
		start = end
	}

	return New(name, labels, values)
}

func keepFirstUsers(events []Event, limit int) []Event {
	allowed := make(map[string]struct{}, limit)

	for _, e := range events {
		if len(allowed) == limit {
			break
		}

		allowed[e.User] = struct{}{}
	}

	out := make([]Event, 0, len(events))

	for _, e := range events {
		if _, ok := allowed[e.User]; ok {
			out = append(out, e)
		}
	}

	return out
}

func countUsers(events []Event) int {
	users := make(map[string]struct{})
	for _, e := range events {
		users[e.User] = struct{}{}
	}

	return len(users)
}

// dropBelowQuantile keeps events strictly after the q time quantile. Numeric
// times interpolate linearly between ranks; other labels use the lower rank.
func dropBelowQuantile(sorted []Event, q float64) []Event {
	if len(sorted) == 0 {
		return sorted
	}

	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := min(lo+1, len(sorted)-1)

	keep := func(e Event) bool { return compareTimes(e.Time, sorted[lo].Time) > 0 }

	a, aErr := strconv.ParseFloat(sorted[lo].Time, 64)
	b, bErr := strconv.ParseFloat(sorted[hi].Time, 64)

	if aErr == nil && bErr == nil {
		threshold := a + (b-a)*(rank-float64(lo))
		keep = func(e Event) bool {
			v, err := strconv.ParseFloat(e.Time, 64)

			return err == nil && v > threshold
		}
	}

	out := make([]Event, 0, len(sorted))

	for _, e := range sorted {
		if keep(e) {
			out = append(out, e)
		}
	}

	return out
}

// compareTimes orders numeric labels numerically and everything else lexically.
func compareTimes(a, b string) int {
	x, xErr := strconv.ParseFloat(a, 64)
	y, yErr := strconv.ParseFloat(b, 64)

	if xErr == nil && yErr == nil {
		return cmp.Compare(x, y)
	}

	return cmp.Compare(a, b)
}
