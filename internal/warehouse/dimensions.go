package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// The dimension upsert engine. Each batch is one transaction: a partial
// dimension write would corrupt later key resolution, so any failure rolls
// the whole batch back and the run aborts. Upserts target the natural key;
// an existing row keeps its surrogate key across runs (no key churn), only
// non-key attributes refresh.

// UpsertLocations writes location dimension candidates. The natural key is
// the whole row, so pre-existing rows are left untouched.
func (s *Store) UpsertLocations(ctx context.Context, candidates []transform.LocationKey) error {
	return s.dimensionTx(ctx, "locations", func(tx *sql.Tx) error {
		for _, c := range candidates {
			_, err := tx.ExecContext(ctx, s.bind(
				`INSERT INTO dim_locations (name, region, country) VALUES (?, ?, ?)
				 ON CONFLICT (name, region, country) DO NOTHING`),
				c.Name, c.Region, c.Country)
			if err != nil {
				return fmt.Errorf("upsert location %s/%s/%s: %w", c.Name, c.Region, c.Country, err)
			}
		}
		return nil
	})
}

// UpsertConditions writes condition dimension candidates; the description
// text refreshes in place for an existing code.
func (s *Store) UpsertConditions(ctx context.Context, candidates []transform.ConditionCandidate) error {
	return s.dimensionTx(ctx, "conditions", func(tx *sql.Tx) error {
		for _, c := range candidates {
			_, err := tx.ExecContext(ctx, s.bind(
				`INSERT INTO dim_conditions (code, text) VALUES (?, ?)
				 ON CONFLICT (code) DO UPDATE SET text = excluded.text`),
				c.Code, c.Text)
			if err != nil {
				return fmt.Errorf("upsert condition %d: %w", c.Code, err)
			}
		}
		return nil
	})
}

// UpsertTimeBuckets writes time dimension candidates. Derived calendar
// fields are a pure function of the bucket time and refresh alongside it.
func (s *Store) UpsertTimeBuckets(ctx context.Context, candidates []transform.TimeBucket) error {
	return s.dimensionTx(ctx, "time buckets", func(tx *sql.Tx) error {
		for _, b := range candidates {
			_, err := tx.ExecContext(ctx, s.bind(
				`INSERT INTO dim_time (bucket_time, year, month, day, hour, minute, weekday, month_name)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (bucket_time) DO UPDATE SET
					year = excluded.year,
					month = excluded.month,
					day = excluded.day,
					hour = excluded.hour,
					minute = excluded.minute,
					weekday = excluded.weekday,
					month_name = excluded.month_name`),
				b.Key(), b.Year, b.Month, b.Day, b.Hour, b.Minute, b.Weekday, b.MonthName)
			if err != nil {
				return fmt.Errorf("upsert time bucket %s: %w", b.Key(), err)
			}
		}
		return nil
	})
}

func (s *Store) dimensionTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s dimension tx: %w", name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s dimension tx: %w", name, err)
	}
	return nil
}
