// Package staging implements the intermediate relational store that raw
// observations land in before the warehouse transfer, plus the etl_runs
// log sink consumed by the status endpoint.
package staging

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/common"
)

// Store is the staging database handle. A single run uses it sequentially;
// no concurrent writers are assumed.
type Store struct {
	db      *sql.DB
	dialect common.Dialect
}

// Open opens the staging store and bootstraps its schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, dialect, err := common.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the staging tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range createStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}
	}
	return nil
}

// Reset drops and recreates the raw tables. Run history in etl_runs is kept.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range tableDropOrder {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop staging table %s: %w", table, err)
		}
	}
	return s.EnsureSchema(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) bind(query string) string {
	return common.Rebind(s.dialect, query)
}
