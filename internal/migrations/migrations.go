// Package migrations embeds the schema for the users and pokemon tables and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed *.sql
var Migrations embed.FS

// seams for tests
var (
	gooseUp     = goose.UpContext
	gooseDown   = goose.DownContext
	gooseDownTo = goose.DownToContext
	gooseStatus = goose.StatusContext
)

// Runner applies the embedded migrations to a postgres database.
type Runner struct {
	db      *sql.DB
	timeout time.Duration
	log     *logrus.Logger
}

// NewRunner configures goose for the embedded files. table names the version
// table goose keeps its bookkeeping in.
func NewRunner(db *sql.DB, table string, log *logrus.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("nil database provided")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("configure goose: %w", err)
	}
	if table != "" {
		goose.SetTableName(table)
	}

	return &Runner{db: db, timeout: time.Minute, log: log}, nil
}

// Up applies pending migrations
func (r *Runner) Up(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Info("Applying migrations")
	if err := gooseUp(ctx, r.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	r.log.Info("Migrations applied")
	return nil
}

// Status logs applied and pending migrations
func (r *Runner) Status(ctx context.Context) error {
	if err := gooseStatus(ctx, r.db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Down rolls back the latest migration, or every migration above target
// when target is positive.
func (r *Runner) Down(ctx context.Context, target int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if target > 0 {
		r.log.Infof("Rolling back migrations to version %d", target)
		if err := gooseDownTo(ctx, r.db, ".", target); err != nil {
			return fmt.Errorf("rollback to version %d: %w", target, err)
		}
		return nil
	}

	r.log.Info("Rolling back latest migration")
	if err := gooseDown(ctx, r.db, "."); err != nil {
		return fmt.Errorf("rollback latest migration: %w", err)
	}
	return nil
}
