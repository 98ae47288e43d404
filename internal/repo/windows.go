package repo

import (
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ExpiredSlack is the width of the "just expired" bucket that follows each
// sliding window.
const ExpiredSlack = 1800 * time.Second

// Windows maps a disaster type to its sliding window W.
type Windows map[string]time.Duration

// DefaultWindows returns the windows the service ships with.
func DefaultWindows() Windows {
	return Windows{
		"flood":      10800 * time.Second,
		"earthquake": 43200 * time.Second,
		"wind":       7200 * time.Second,
		"haze":       21600 * time.Second,
		"volcano":    43200 * time.Second,
		"fire":       21600 * time.Second,
	}
}

// Override returns a copy where every type uses d. A zero d returns w as is.
func (w Windows) Override(d time.Duration) Windows {
	if d <= 0 {
		return w
	}
	out := make(Windows, len(w))
	for k := range w {
		out[k] = d
	}
	return out
}

func (w Windows) types() []string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WindowPredicate builds the OR of per-type predicates
// "disaster_type = t AND created_at >= now-W(t)".
func WindowPredicate(w Windows, now time.Time, column string) sq.Sqlizer {
	or := sq.Or{}
	for _, t := range w.types() {
		or = append(or, sq.And{
			sq.Eq{"disaster_type": t},
			sq.GtOrEq{column: now.Add(-w[t]).UTC()},
		})
	}
	return or
}

// ExpiredPredicate builds the OR of per-type buckets holding the records
// that most recently fell out of their window:
// "now-W(t)-1800s <= created_at < now-W(t)".
func ExpiredPredicate(w Windows, now time.Time, column string) sq.Sqlizer {
	or := sq.Or{}
	for _, t := range w.types() {
		edge := now.Add(-w[t]).UTC()
		or = append(or, sq.And{
			sq.Eq{"disaster_type": t},
			sq.GtOrEq{column: edge.Add(-ExpiredSlack)},
			sq.Lt{column: edge},
		})
	}
	return or
}

// ExpiredBounds returns the card sweep bucket [now-W, now-W+1800s].
func ExpiredBounds(now time.Time, w time.Duration) (start, end time.Time) {
	start = now.Add(-w).UTC()
	return start, start.Add(ExpiredSlack)
}
