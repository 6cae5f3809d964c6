package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gatherly/internal/domain"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapWriteError translates constraint violations into the typed failures the
// service layer reports: 23505 (unique) to a conflict, 23503 (foreign key)
// to a referential failure. Everything else passes through.
func mapWriteError(err error) error {
	var perr *pq.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case pqUniqueViolation:
			return &domain.ConflictError{Constraint: perr.Constraint}
		case pqForeignKeyViolation:
			return &domain.ReferentialError{Reference: perr.Constraint}
		}
	}
	return err
}

// runTx runs fn inside a transaction, rolling back on any error so the whole
// write, cascade included, is all-or-nothing.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
