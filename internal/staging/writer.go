package staging

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// upsertLocation inserts a location if absent and returns its staging id.
// The id is always obtained by reading back on the natural key, never
// inferred from insert results.
func (s *Store) upsertLocation(ctx context.Context, tx *sql.Tx, loc weather.Location) (int64, error) {
	_, err := tx.ExecContext(ctx, s.bind(
		`INSERT INTO locations (name, region, country) VALUES (?, ?, ?)
		 ON CONFLICT (name, region, country) DO NOTHING`),
		loc.Name, loc.Region, loc.Country)
	if err != nil {
		return 0, fmt.Errorf("insert location %s: %w", loc.Key(), err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, s.bind(
		`SELECT id FROM locations WHERE name = ? AND region = ? AND country = ?`),
		loc.Name, loc.Region, loc.Country).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("read back location %s: %w", loc.Key(), err)
	}
	return id, nil
}

func (s *Store) upsertCondition(ctx context.Context, tx *sql.Tx, cond weather.Condition) error {
	_, err := tx.ExecContext(ctx, s.bind(
		`INSERT INTO conditions (code, text) VALUES (?, ?)
		 ON CONFLICT (code) DO UPDATE SET text = excluded.text`),
		cond.Code, cond.Text)
	if err != nil {
		return fmt.Errorf("upsert condition %d: %w", cond.Code, err)
	}
	return nil
}

// StageObservations lands normalized observations in the staging tables.
// The whole batch is one transaction: an observation keyed on
// (location, observed_at) that already exists has its measurements
// refreshed. Returns the number of observation rows written.
func (s *Store) StageObservations(ctx context.Context, observations []weather.Observation) (n int, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin staging tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, obs := range observations {
		locID, err := s.upsertLocation(ctx, tx, obs.Location)
		if err != nil {
			return 0, err
		}
		if err := s.upsertCondition(ctx, tx, obs.Condition); err != nil {
			return 0, err
		}

		m := obs.Measures
		_, err = tx.ExecContext(ctx, s.bind(
			`INSERT INTO observations (
				location_id, observed_at, condition_code,
				temp_c, wind_kph, wind_degree, wind_dir, pressure_mb,
				precip_mm, humidity, cloud, vis_km, uv, gust_kph
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (location_id, observed_at) DO UPDATE SET
				condition_code = excluded.condition_code,
				temp_c = excluded.temp_c,
				wind_kph = excluded.wind_kph,
				wind_degree = excluded.wind_degree,
				wind_dir = excluded.wind_dir,
				pressure_mb = excluded.pressure_mb,
				precip_mm = excluded.precip_mm,
				humidity = excluded.humidity,
				cloud = excluded.cloud,
				vis_km = excluded.vis_km,
				uv = excluded.uv,
				gust_kph = excluded.gust_kph`),
			locID, obs.ObservedAt, obs.Condition.Code,
			m.TempC, m.WindKph, m.WindDegree, m.WindDir, m.PressureMb,
			m.PrecipMm, m.Humidity, m.Cloud, m.VisKm, m.UV, m.GustKph)
		if err != nil {
			return 0, fmt.Errorf("upsert observation %s@%s: %w", obs.Location.Key(), obs.ObservedAt, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit staging tx: %w", err)
	}
	return n, nil
}
