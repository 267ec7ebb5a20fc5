package warehouse

import "github.com/uemoa-meteo/weather-warehouse/internal/common"

func serialPK(d common.Dialect) string {
	if d == common.DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// createStatements returns the star-schema DDL in dependency order.
// Surrogate keys are warehouse-assigned; natural keys carry UNIQUE
// constraints so upserts can target them.
func createStatements(d common.Dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS dim_locations (
			id ` + serialPK(d) + `,
			name TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL,
			UNIQUE (name, region, country)
		)`,
		`CREATE TABLE IF NOT EXISTS dim_conditions (
			id ` + serialPK(d) + `,
			code INTEGER NOT NULL UNIQUE,
			text TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dim_time (
			id ` + serialPK(d) + `,
			bucket_time TEXT NOT NULL UNIQUE,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			minute INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			month_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fact_observations (
			id ` + serialPK(d) + `,
			location_id BIGINT NOT NULL REFERENCES dim_locations(id),
			time_id BIGINT NOT NULL REFERENCES dim_time(id),
			condition_id BIGINT NOT NULL REFERENCES dim_conditions(id),
			temp_c DOUBLE PRECISION NOT NULL,
			wind_kph DOUBLE PRECISION NOT NULL,
			wind_degree INTEGER NOT NULL,
			wind_dir TEXT NOT NULL,
			pressure_mb DOUBLE PRECISION NOT NULL,
			precip_mm DOUBLE PRECISION NOT NULL,
			humidity INTEGER NOT NULL,
			cloud INTEGER NOT NULL,
			vis_km DOUBLE PRECISION NOT NULL,
			uv DOUBLE PRECISION NOT NULL,
			gust_kph DOUBLE PRECISION NOT NULL,
			UNIQUE (location_id, time_id)
		)`,
	}
}
