// Package warehouse implements the star-schema store: dimension and fact
// upsert engines, the surrogate-key resolver, and the read-API queries.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/common"
)

// ErrNotFound is returned when a read query matches no fact rows.
var ErrNotFound = errors.New("no warehouse data for location")

// Store is the warehouse database handle.
type Store struct {
	db      *sql.DB
	dialect common.Dialect
}

// Open opens the warehouse store and bootstraps the star schema.
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

// EnsureSchema creates the star-schema tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range createStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create warehouse table: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) bind(query string) string {
	return common.Rebind(s.dialect, query)
}
