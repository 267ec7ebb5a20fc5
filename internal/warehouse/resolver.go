package warehouse

import (
	"context"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// KeyMappings reads the complete dimension tables back and builds the
// natural-key to surrogate-key lookups. The warehouse is the source of truth
// for key assignment: rows written in prior runs resolve here too. Keys are
// never inferred arithmetically from insert order.
func (s *Store) KeyMappings(ctx context.Context) (transform.KeyMappings, error) {
	keys := transform.KeyMappings{
		Locations:  make(map[transform.LocationKey]int64),
		Conditions: make(map[int]int64),
		Times:      make(map[string]int64),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region, country FROM dim_locations`)
	if err != nil {
		return keys, fmt.Errorf("read location keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id int64
		var key transform.LocationKey
		if err := rows.Scan(&id, &key.Name, &key.Region, &key.Country); err != nil {
			return keys, fmt.Errorf("scan location key: %w", err)
		}
		keys.Locations[key] = id
	}
	if err := rows.Err(); err != nil {
		return keys, fmt.Errorf("read location keys: %w", err)
	}

	condRows, err := s.db.QueryContext(ctx, `SELECT id, code FROM dim_conditions`)
	if err != nil {
		return keys, fmt.Errorf("read condition keys: %w", err)
	}
	defer func() { _ = condRows.Close() }()
	for condRows.Next() {
		var id int64
		var code int
		if err := condRows.Scan(&id, &code); err != nil {
			return keys, fmt.Errorf("scan condition key: %w", err)
		}
		keys.Conditions[code] = id
	}
	if err := condRows.Err(); err != nil {
		return keys, fmt.Errorf("read condition keys: %w", err)
	}

	timeRows, err := s.db.QueryContext(ctx, `SELECT id, bucket_time FROM dim_time`)
	if err != nil {
		return keys, fmt.Errorf("read time keys: %w", err)
	}
	defer func() { _ = timeRows.Close() }()
	for timeRows.Next() {
		var id int64
		var bucket string
		if err := timeRows.Scan(&id, &bucket); err != nil {
			return keys, fmt.Errorf("scan time key: %w", err)
		}
		keys.Times[bucket] = id
	}
	if err := timeRows.Err(); err != nil {
		return keys, fmt.Errorf("read time keys: %w", err)
	}

	return keys, nil
}
