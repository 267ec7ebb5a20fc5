package transform

import (
	"time"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// SourceSnapshot is the full set of raw rows read from the staging store.
// It is the sole ingestion contract of the transformation core; rows are
// read-only here.
type SourceSnapshot struct {
	Locations    []RawLocation
	Conditions   []RawCondition
	Observations []RawObservation
}

// RawLocation is a staging location row. ID is the staging-local key
// observations reference; it never leaks into the warehouse.
type RawLocation struct {
	ID      int64
	Name    string
	Region  string
	Country string
}

// RawCondition is a staging condition row.
type RawCondition struct {
	Code int
	Text string
}

// RawObservation is a staging observation row. ObservedAt is the raw
// timestamp string as landed by extraction.
type RawObservation struct {
	LocationID    int64
	ObservedAt    string
	ConditionCode int
	Measures      weather.Measurements
}

// LocationKey is the natural key of a location dimension row.
type LocationKey struct {
	Name    string
	Region  string
	Country string
}

// ConditionCandidate is a deduplicated condition dimension candidate.
// Code is the natural key; Text refreshes on upsert.
type ConditionCandidate struct {
	Code int
	Text string
}

// TimeBucket is a time dimension candidate at minute granularity. The
// derived calendar fields are a pure function of Time.
type TimeBucket struct {
	Time      time.Time
	Year      int
	Month     int
	Day       int
	Hour      int
	Minute    int
	Weekday   string
	MonthName string
}

// NewTimeBucket derives a bucket from a timestamp, truncated to the minute.
func NewTimeBucket(t time.Time) TimeBucket {
	t = t.Truncate(time.Minute)
	return TimeBucket{
		Time:      t,
		Year:      t.Year(),
		Month:     int(t.Month()),
		Day:       t.Day(),
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		Weekday:   t.Weekday().String(),
		MonthName: t.Month().String(),
	}
}

// Key returns the bucket's natural key string.
func (b TimeBucket) Key() string {
	return b.Time.Format(weather.TimeLayout)
}

// Candidates holds the deduplicated dimension candidate sets derived from a
// source snapshot, in first-seen order.
type Candidates struct {
	Locations   []LocationKey
	Conditions  []ConditionCandidate
	TimeBuckets []TimeBucket

	// UnparseableTimes counts distinct observation timestamps that failed to
	// parse and were excluded from the bucket candidates. The affected rows
	// are rejected later by the assembler, where they are counted per row.
	UnparseableTimes int
}

// KeyMappings are the natural-key to surrogate-key lookups read back from
// the warehouse after dimension upserts commit.
type KeyMappings struct {
	Locations  map[LocationKey]int64
	Conditions map[int]int64
	Times      map[string]int64
}

// FactRow is a warehouse fact row: surrogate keys plus measurements.
type FactRow struct {
	LocationID  int64
	TimeID      int64
	ConditionID int64
	Measures    weather.Measurements
}

// Rejections aggregates the per-dimension counts of observations dropped by
// the assembler. Each rejected observation is counted exactly once, under
// the first dimension that failed to resolve.
type Rejections struct {
	BadTimestamp     int
	MissingLocation  int
	MissingTime      int
	MissingCondition int
}

// Total returns the overall rejected-row count.
func (r Rejections) Total() int {
	return r.BadTimestamp + r.MissingLocation + r.MissingTime + r.MissingCondition
}
