package warehouse

import (
	"context"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// UpsertFacts writes fact rows in a single transaction, keyed on
// (location_id, time_id). An existing fact has all measurement columns
// overwritten (last write wins). A failure rolls the whole fact load back;
// already-committed dimension work is not undone.
func (s *Store) UpsertFacts(ctx context.Context, facts []transform.FactRow) (n int, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin fact tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.bind(
		`INSERT INTO fact_observations (
			location_id, time_id, condition_id,
			temp_c, wind_kph, wind_degree, wind_dir, pressure_mb,
			precip_mm, humidity, cloud, vis_km, uv, gust_kph
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id, time_id) DO UPDATE SET
			condition_id = excluded.condition_id,
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
			gust_kph = excluded.gust_kph`))
	if err != nil {
		return 0, fmt.Errorf("prepare fact upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range facts {
		m := f.Measures
		if _, err := stmt.ExecContext(ctx,
			f.LocationID, f.TimeID, f.ConditionID,
			m.TempC, m.WindKph, m.WindDegree, m.WindDir, m.PressureMb,
			m.PrecipMm, m.Humidity, m.Cloud, m.VisKm, m.UV, m.GustKph,
		); err != nil {
			return 0, fmt.Errorf("upsert fact (location %d, time %d): %w", f.LocationID, f.TimeID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit fact tx: %w", err)
	}
	return n, nil
}
