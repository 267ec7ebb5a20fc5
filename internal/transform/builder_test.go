package transform

import (
	"testing"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

func TestBuildCandidatesDeduplicates(t *testing.T) {
	snap := SourceSnapshot{
		Locations: []RawLocation{
			{ID: 1, Name: "Dakar", Region: "Dakar", Country: "Senegal"},
			{ID: 2, Name: "Bamako", Region: "Bamako", Country: "Mali"},
			{ID: 3, Name: "Dakar", Region: "Dakar", Country: "Senegal"},
		},
		Conditions: []RawCondition{
			{Code: 1000, Text: "Sunny"},
			{Code: 1003, Text: "Partly cloudy"},
			{Code: 1000, Text: "Sunny"},
		},
		Observations: []RawObservation{
			{LocationID: 1, ObservedAt: "2024-01-01 10:00", ConditionCode: 1000},
			{LocationID: 2, ObservedAt: "2024-01-01 10:00", ConditionCode: 1003},
			{LocationID: 1, ObservedAt: "2024-01-01 11:00", ConditionCode: 1000},
		},
	}

	c := BuildCandidates(snap)

	if len(c.Locations) != 2 {
		t.Fatalf("expected 2 location candidates, got %d", len(c.Locations))
	}
	if len(c.Conditions) != 2 {
		t.Fatalf("expected 2 condition candidates, got %d", len(c.Conditions))
	}
	if len(c.TimeBuckets) != 2 {
		t.Fatalf("expected 2 time bucket candidates, got %d", len(c.TimeBuckets))
	}

	// First-seen order.
	if c.Locations[0].Name != "Dakar" || c.Locations[1].Name != "Bamako" {
		t.Fatalf("unexpected location order: %+v", c.Locations)
	}
	if c.Conditions[0].Code != 1000 || c.Conditions[1].Code != 1003 {
		t.Fatalf("unexpected condition order: %+v", c.Conditions)
	}
}

func TestBuildCandidatesTimeBucketFields(t *testing.T) {
	snap := SourceSnapshot{
		Observations: []RawObservation{
			{LocationID: 1, ObservedAt: "2024-01-01 10:00", ConditionCode: 1000},
		},
	}

	c := BuildCandidates(snap)
	if len(c.TimeBuckets) != 1 {
		t.Fatalf("expected 1 time bucket, got %d", len(c.TimeBuckets))
	}

	b := c.TimeBuckets[0]
	if b.Year != 2024 || b.Month != 1 || b.Day != 1 || b.Hour != 10 || b.Minute != 0 {
		t.Fatalf("unexpected bucket fields: %+v", b)
	}
	// Derived names must agree with the date: 2024-01-01 was a Monday.
	if b.Weekday != "Monday" {
		t.Errorf("expected weekday Monday, got %s", b.Weekday)
	}
	if b.MonthName != "January" {
		t.Errorf("expected month name January, got %s", b.MonthName)
	}
	if b.Key() != "2024-01-01 10:00" {
		t.Errorf("unexpected bucket key %q", b.Key())
	}
}

func TestBuildCandidatesSecondGranularityCollapses(t *testing.T) {
	// Second-granularity timestamps from older backfills truncate to the
	// same minute bucket.
	snap := SourceSnapshot{
		Observations: []RawObservation{
			{LocationID: 1, ObservedAt: "2024-01-01 10:00:15", ConditionCode: 1000},
			{LocationID: 1, ObservedAt: "2024-01-01 10:00:45", ConditionCode: 1000},
		},
	}

	c := BuildCandidates(snap)
	if len(c.TimeBuckets) != 1 {
		t.Fatalf("expected 1 time bucket, got %d", len(c.TimeBuckets))
	}
	if c.UnparseableTimes != 0 {
		t.Fatalf("expected no unparseable timestamps, got %d", c.UnparseableTimes)
	}
}

func TestBuildCandidatesExcludesUnparseableTimestamps(t *testing.T) {
	snap := SourceSnapshot{
		Observations: []RawObservation{
			{LocationID: 1, ObservedAt: "2024-01-01 10:00", ConditionCode: 1000},
			{LocationID: 1, ObservedAt: "not-a-timestamp", ConditionCode: 1000},
			{LocationID: 2, ObservedAt: "not-a-timestamp", ConditionCode: 1000},
		},
	}

	c := BuildCandidates(snap)
	if len(c.TimeBuckets) != 1 {
		t.Fatalf("expected 1 time bucket, got %d", len(c.TimeBuckets))
	}
	if c.UnparseableTimes != 1 {
		t.Fatalf("expected 1 distinct unparseable timestamp, got %d", c.UnparseableTimes)
	}
}

func TestParseObservationTime(t *testing.T) {
	got, err := ParseObservationTime("2024-03-15 18:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(weather.TimeLayout) != "2024-03-15 18:45" {
		t.Errorf("unexpected parse result %v", got)
	}

	if _, err := ParseObservationTime("15/03/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
