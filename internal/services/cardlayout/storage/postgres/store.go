// Package postgres provides the Postgres-backed card layout store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/louisbranch/tablecards/internal/platform/storage/migrate"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage/postgres/migrations"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage/sqlstore"
)

// uniqueViolationCode is the SQLSTATE for unique_violation.
const uniqueViolationCode = pq.ErrorCode("23505")

// Open connects to dsn, verifies the connection and applies embedded
// migrations.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := migrate.Apply(ctx, sqlDB, migrate.Postgres, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlstore.New(sqlDB, migrate.Postgres, isUniqueViolation), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
