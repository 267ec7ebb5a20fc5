package warehouse

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	s, err := Open(context.Background(), "sqlite", dsn)
	if err != nil {
		t.Fatalf("open warehouse store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var dakarKey = transform.LocationKey{Name: "Dakar", Region: "Dakar", Country: "Senegal"}

func seedDakarDimensions(t *testing.T, s *Store) transform.KeyMappings {
	t.Helper()
	ctx := context.Background()

	bucket, err := transform.ParseObservationTime("2024-01-01 10:00")
	if err != nil {
		t.Fatalf("parse bucket time: %v", err)
	}

	if err := s.UpsertLocations(ctx, []transform.LocationKey{dakarKey}); err != nil {
		t.Fatalf("upsert locations: %v", err)
	}
	if err := s.UpsertConditions(ctx, []transform.ConditionCandidate{{Code: 1000, Text: "Sunny"}}); err != nil {
		t.Fatalf("upsert conditions: %v", err)
	}
	if err := s.UpsertTimeBuckets(ctx, []transform.TimeBucket{transform.NewTimeBucket(bucket)}); err != nil {
		t.Fatalf("upsert time buckets: %v", err)
	}

	keys, err := s.KeyMappings(ctx)
	if err != nil {
		t.Fatalf("key mappings: %v", err)
	}
	return keys
}

func TestDimensionUpsertsResolveByReadBack(t *testing.T) {
	s := openTestStore(t)
	keys := seedDakarDimensions(t, s)

	if _, ok := keys.Locations[dakarKey]; !ok {
		t.Error("location key not resolved")
	}
	if _, ok := keys.Conditions[1000]; !ok {
		t.Error("condition key not resolved")
	}
	if _, ok := keys.Times["2024-01-01 10:00"]; !ok {
		t.Error("time bucket key not resolved")
	}
}

func TestDimensionUpsertsAreIdempotent(t *testing.T) {
	s := openTestStore(t)
	first := seedDakarDimensions(t, s)
	second := seedDakarDimensions(t, s)

	if len(second.Locations) != 1 || len(second.Conditions) != 1 || len(second.Times) != 1 {
		t.Fatalf("re-upsert changed cardinality: %d/%d/%d",
			len(second.Locations), len(second.Conditions), len(second.Times))
	}
	if first.Locations[dakarKey] != second.Locations[dakarKey] {
		t.Error("location surrogate key changed across runs")
	}
	if first.Conditions[1000] != second.Conditions[1000] {
		t.Error("condition surrogate key changed across runs")
	}
	if first.Times["2024-01-01 10:00"] != second.Times["2024-01-01 10:00"] {
		t.Error("time surrogate key changed across runs")
	}
}

func TestConditionTextRefreshKeepsKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := seedDakarDimensions(t, s)
	if err := s.UpsertConditions(ctx, []transform.ConditionCandidate{{Code: 1000, Text: "Clear"}}); err != nil {
		t.Fatalf("refresh condition: %v", err)
	}

	keys, err := s.KeyMappings(ctx)
	if err != nil {
		t.Fatalf("key mappings: %v", err)
	}
	if len(keys.Conditions) != 1 {
		t.Fatalf("attribute refresh must not add rows, got %d", len(keys.Conditions))
	}
	if keys.Conditions[1000] != first.Conditions[1000] {
		t.Error("condition surrogate key changed on attribute refresh")
	}

	var text string
	if err := s.db.QueryRowContext(ctx,
		s.bind(`SELECT text FROM dim_conditions WHERE code = ?`), 1000).Scan(&text); err != nil {
		t.Fatalf("read condition text: %v", err)
	}
	if text != "Clear" {
		t.Errorf("condition text not refreshed, got %q", text)
	}
}

func TestUpsertFactsLastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	keys := seedDakarDimensions(t, s)

	fact := transform.FactRow{
		LocationID:  keys.Locations[dakarKey],
		TimeID:      keys.Times["2024-01-01 10:00"],
		ConditionID: keys.Conditions[1000],
		Measures:    weather.Measurements{TempC: 30.0, Humidity: 40},
	}
	n, err := s.UpsertFacts(ctx, []transform.FactRow{fact})
	if err != nil {
		t.Fatalf("first fact upsert: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 fact written, got %d", n)
	}

	fact.Measures.TempC = 31.5
	if _, err := s.UpsertFacts(ctx, []transform.FactRow{fact}); err != nil {
		t.Fatalf("second fact upsert: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fact_observations`).Scan(&count); err != nil {
		t.Fatalf("count facts: %v", err)
	}
	if count != 1 {
		t.Fatalf("fact re-upsert must not add rows, got %d", count)
	}

	rec, err := s.Latest(ctx, "Dakar", "Senegal")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if rec.Measures.TempC != 31.5 {
		t.Errorf("measurements not overwritten, got %v", rec.Measures.TempC)
	}
}

func TestLatestReturnsNewestBucket(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	keys := seedDakarDimensions(t, s)

	later, err := transform.ParseObservationTime("2024-01-01 11:00")
	if err != nil {
		t.Fatalf("parse bucket time: %v", err)
	}
	if err := s.UpsertTimeBuckets(ctx, []transform.TimeBucket{transform.NewTimeBucket(later)}); err != nil {
		t.Fatalf("upsert time buckets: %v", err)
	}
	keys, err = s.KeyMappings(ctx)
	if err != nil {
		t.Fatalf("key mappings: %v", err)
	}

	facts := []transform.FactRow{
		{
			LocationID:  keys.Locations[dakarKey],
			TimeID:      keys.Times["2024-01-01 10:00"],
			ConditionID: keys.Conditions[1000],
			Measures:    weather.Measurements{TempC: 30.0},
		},
		{
			LocationID:  keys.Locations[dakarKey],
			TimeID:      keys.Times["2024-01-01 11:00"],
			ConditionID: keys.Conditions[1000],
			Measures:    weather.Measurements{TempC: 32.0},
		},
	}
	if _, err := s.UpsertFacts(ctx, facts); err != nil {
		t.Fatalf("upsert facts: %v", err)
	}

	rec, err := s.Latest(ctx, "Dakar", "")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !rec.ObservedAt.Equal(later) {
		t.Errorf("expected newest bucket %v, got %v", later, rec.ObservedAt)
	}
	if rec.Measures.TempC != 32.0 {
		t.Errorf("unexpected measurements on latest record: %+v", rec.Measures)
	}
	if rec.Location.Country != "Senegal" || rec.Condition.Text != "Sunny" {
		t.Errorf("dimension attributes did not join back: %+v", rec)
	}
}

func TestLatestNarrowsByCountry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Two distinct locations sharing a city name.
	twin := transform.LocationKey{Name: "Dakar", Region: "Centre", Country: "Burkina Faso"}
	if err := s.UpsertLocations(ctx, []transform.LocationKey{dakarKey, twin}); err != nil {
		t.Fatalf("upsert locations: %v", err)
	}
	if err := s.UpsertConditions(ctx, []transform.ConditionCandidate{{Code: 1000, Text: "Sunny"}}); err != nil {
		t.Fatalf("upsert conditions: %v", err)
	}
	bucket, err := transform.ParseObservationTime("2024-01-01 10:00")
	if err != nil {
		t.Fatalf("parse bucket time: %v", err)
	}
	if err := s.UpsertTimeBuckets(ctx, []transform.TimeBucket{transform.NewTimeBucket(bucket)}); err != nil {
		t.Fatalf("upsert time buckets: %v", err)
	}
	keys, err := s.KeyMappings(ctx)
	if err != nil {
		t.Fatalf("key mappings: %v", err)
	}

	facts := []transform.FactRow{
		{
			LocationID:  keys.Locations[dakarKey],
			TimeID:      keys.Times["2024-01-01 10:00"],
			ConditionID: keys.Conditions[1000],
			Measures:    weather.Measurements{TempC: 30.0},
		},
		{
			LocationID:  keys.Locations[twin],
			TimeID:      keys.Times["2024-01-01 10:00"],
			ConditionID: keys.Conditions[1000],
			Measures:    weather.Measurements{TempC: 25.0},
		},
	}
	if _, err := s.UpsertFacts(ctx, facts); err != nil {
		t.Fatalf("upsert facts: %v", err)
	}

	rec, err := s.Latest(ctx, "Dakar", "Burkina Faso")
	if err != nil {
		t.Fatalf("latest with country: %v", err)
	}
	if rec.Location.Country != "Burkina Faso" || rec.Measures.TempC != 25.0 {
		t.Errorf("country filter did not narrow the match: %+v", rec)
	}

	// Without a country any match is acceptable; the query must still run.
	if _, err := s.Latest(ctx, "Dakar", ""); err != nil {
		t.Fatalf("latest without country: %v", err)
	}

	records, err := s.History(ctx, "Dakar", "Senegal",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("history with country: %v", err)
	}
	if len(records) != 1 || records[0].Location.Country != "Senegal" {
		t.Errorf("history country filter did not narrow the match: %+v", records)
	}
}

func TestLocationFilterPlaceholders(t *testing.T) {
	where, args := locationFilter("Dakar", "")
	if where != `WHERE l.name = ?` || len(args) != 1 {
		t.Errorf("unexpected city-only filter: %q %v", where, args)
	}

	// No comparison against an untyped literal may appear: Postgres rejects
	// statements whose parameter types it cannot infer at prepare time.
	where, args = locationFilter("Dakar", "Senegal")
	if where != `WHERE l.name = ? AND l.country = ?` || len(args) != 2 {
		t.Errorf("unexpected country filter: %q %v", where, args)
	}
}

func TestLatestUnknownCityNotFound(t *testing.T) {
	s := openTestStore(t)
	seedDakarDimensions(t, s)

	if _, err := s.Latest(context.Background(), "Lagos", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryFiltersRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	keys := seedDakarDimensions(t, s)

	buckets := []string{"2024-01-01 10:00", "2024-01-01 11:00", "2024-01-01 12:00"}
	var rows []transform.FactRow
	for _, b := range buckets {
		ts, err := transform.ParseObservationTime(b)
		if err != nil {
			t.Fatalf("parse bucket time: %v", err)
		}
		if err := s.UpsertTimeBuckets(ctx, []transform.TimeBucket{transform.NewTimeBucket(ts)}); err != nil {
			t.Fatalf("upsert time buckets: %v", err)
		}
	}
	keys, err := s.KeyMappings(ctx)
	if err != nil {
		t.Fatalf("key mappings: %v", err)
	}
	for _, b := range buckets {
		rows = append(rows, transform.FactRow{
			LocationID:  keys.Locations[dakarKey],
			TimeID:      keys.Times[b],
			ConditionID: keys.Conditions[1000],
		})
	}
	if _, err := s.UpsertFacts(ctx, rows); err != nil {
		t.Fatalf("upsert facts: %v", err)
	}

	from := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	records, err := s.History(ctx, "Dakar", "Senegal", from, to)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if !records[0].ObservedAt.Before(records[1].ObservedAt) {
		t.Error("history must be ordered time ascending")
	}

	if _, err := s.History(ctx, "Dakar", "Senegal",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for empty range, got %v", err)
	}
}
