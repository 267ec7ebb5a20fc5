package common

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect identifies the SQL flavour of an open connection. The staging and
// warehouse stores use it to pick DDL and placeholder styles.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Open opens a database/sql handle for the configured driver name.
// Supported drivers: "sqlite" (modernc, default) and "postgres" (pgx stdlib).
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case "", "sqlite":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		return db, DialectSQLite, nil
	case "postgres", "pgx":
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return db, DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Rebind rewrites `?` placeholders into the dialect's native form.
// Queries in this repo are written with `?`; Postgres needs `$1..$n`.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
