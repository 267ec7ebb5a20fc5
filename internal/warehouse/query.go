package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// ObservationRecord is one fact row joined back to its dimensions, as served
// by the read API.
type ObservationRecord struct {
	Location   weather.Location     `json:"location"`
	Condition  weather.Condition    `json:"condition"`
	ObservedAt time.Time            `json:"observed_at"`
	Measures   weather.Measurements `json:"measures"`
}

const observationSelect = `SELECT
		l.name, l.region, l.country,
		c.code, c.text,
		t.bucket_time,
		f.temp_c, f.wind_kph, f.wind_degree, f.wind_dir, f.pressure_mb,
		f.precip_mm, f.humidity, f.cloud, f.vis_km, f.uv, f.gust_kph
	FROM fact_observations f
	JOIN dim_locations l ON l.id = f.location_id
	JOIN dim_time t ON t.id = f.time_id
	JOIN dim_conditions c ON c.id = f.condition_id`

// locationFilter builds the WHERE clause for a city lookup. The country
// filter is branched here rather than written as `(? = '' OR ...)` in SQL:
// Postgres cannot infer a parameter type from a comparison against an
// untyped literal and rejects such a statement at prepare time.
func locationFilter(city, country string) (string, []any) {
	if country == "" {
		return `WHERE l.name = ?`, []any{city}
	}
	return `WHERE l.name = ? AND l.country = ?`, []any{city, country}
}

// Latest returns the most recent observation for a city (optionally
// narrowed by country).
func (s *Store) Latest(ctx context.Context, city, country string) (ObservationRecord, error) {
	where, args := locationFilter(city, country)
	query := observationSelect + `
	` + where + `
	ORDER BY t.bucket_time DESC
	LIMIT 1`
	row := s.db.QueryRowContext(ctx, s.bind(query), args...)
	rec, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ObservationRecord{}, ErrNotFound
	}
	if err != nil {
		return ObservationRecord{}, fmt.Errorf("query latest observation: %w", err)
	}
	return rec, nil
}

// History returns observations for a city between from and to (inclusive),
// ordered by time ascending.
func (s *Store) History(ctx context.Context, city, country string, from, to time.Time) ([]ObservationRecord, error) {
	where, args := locationFilter(city, country)
	query := observationSelect + `
	` + where + `
		AND t.bucket_time >= ? AND t.bucket_time <= ?
	ORDER BY t.bucket_time ASC`
	args = append(args, from.UTC().Format(weather.TimeLayout), to.UTC().Format(weather.TimeLayout))
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query observation history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ObservationRecord
	for rows.Next() {
		rec, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("query observation history: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query observation history: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (ObservationRecord, error) {
	var rec ObservationRecord
	var bucket string
	m := &rec.Measures
	err := row.Scan(
		&rec.Location.Name, &rec.Location.Region, &rec.Location.Country,
		&rec.Condition.Code, &rec.Condition.Text,
		&bucket,
		&m.TempC, &m.WindKph, &m.WindDegree, &m.WindDir, &m.PressureMb,
		&m.PrecipMm, &m.Humidity, &m.Cloud, &m.VisKm, &m.UV, &m.GustKph,
	)
	if err != nil {
		return rec, err
	}
	t, err := transform.ParseObservationTime(bucket)
	if err != nil {
		return rec, err
	}
	rec.ObservedAt = t
	return rec, nil
}
