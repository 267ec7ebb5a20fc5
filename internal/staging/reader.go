package staging

import (
	"context"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// Snapshot reads the full set of raw location, condition, and observation
// rows into memory. This is the transformation core's only view of the
// staging store.
func (s *Store) Snapshot(ctx context.Context) (transform.SourceSnapshot, error) {
	var snap transform.SourceSnapshot

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region, country FROM locations ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("read locations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var l transform.RawLocation
		if err := rows.Scan(&l.ID, &l.Name, &l.Region, &l.Country); err != nil {
			return snap, fmt.Errorf("scan location: %w", err)
		}
		snap.Locations = append(snap.Locations, l)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("read locations: %w", err)
	}

	condRows, err := s.db.QueryContext(ctx, `SELECT code, text FROM conditions ORDER BY code`)
	if err != nil {
		return snap, fmt.Errorf("read conditions: %w", err)
	}
	defer func() { _ = condRows.Close() }()
	for condRows.Next() {
		var c transform.RawCondition
		if err := condRows.Scan(&c.Code, &c.Text); err != nil {
			return snap, fmt.Errorf("scan condition: %w", err)
		}
		snap.Conditions = append(snap.Conditions, c)
	}
	if err := condRows.Err(); err != nil {
		return snap, fmt.Errorf("read conditions: %w", err)
	}

	obsRows, err := s.db.QueryContext(ctx, `SELECT
			location_id, observed_at, condition_code,
			temp_c, wind_kph, wind_degree, wind_dir, pressure_mb,
			precip_mm, humidity, cloud, vis_km, uv, gust_kph
		FROM observations ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("read observations: %w", err)
	}
	defer func() { _ = obsRows.Close() }()
	for obsRows.Next() {
		var o transform.RawObservation
		m := &o.Measures
		if err := obsRows.Scan(
			&o.LocationID, &o.ObservedAt, &o.ConditionCode,
			&m.TempC, &m.WindKph, &m.WindDegree, &m.WindDir, &m.PressureMb,
			&m.PrecipMm, &m.Humidity, &m.Cloud, &m.VisKm, &m.UV, &m.GustKph,
		); err != nil {
			return snap, fmt.Errorf("scan observation: %w", err)
		}
		snap.Observations = append(snap.Observations, o)
	}
	if err := obsRows.Err(); err != nil {
		return snap, fmt.Errorf("read observations: %w", err)
	}

	return snap, nil
}
