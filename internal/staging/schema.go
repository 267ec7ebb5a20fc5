package staging

import "github.com/uemoa-meteo/weather-warehouse/internal/common"

// tableDropOrder lists tables in reverse dependency order for schema reset.
var tableDropOrder = []string{
	"observations",
	"conditions",
	"locations",
}

func serialPK(d common.Dialect) string {
	if d == common.DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// createStatements returns the staging DDL in dependency order. The run-log
// table is deliberately absent from tableDropOrder: resets must not erase
// run history.
func createStatements(d common.Dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id ` + serialPK(d) + `,
			name TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL,
			UNIQUE (name, region, country)
		)`,
		`CREATE TABLE IF NOT EXISTS conditions (
			code INTEGER PRIMARY KEY,
			text TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS observations (
			id ` + serialPK(d) + `,
			location_id BIGINT NOT NULL REFERENCES locations(id),
			observed_at TEXT NOT NULL,
			condition_code INTEGER NOT NULL REFERENCES conditions(code),
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
			UNIQUE (location_id, observed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS etl_runs (
			id ` + serialPK(d) + `,
			run_id TEXT NOT NULL,
			process TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			error TEXT NOT NULL DEFAULT '',
			rows_processed INTEGER NOT NULL DEFAULT 0
		)`,
	}
}
