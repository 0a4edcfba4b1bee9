package database

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

// Migrate runs a goose command (up, down, status, redo, version, reset) against db.
func Migrate(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	dialect := db.DriverName()
	dir := "migrations/postgres"
	if dialect == "mysql" {
		dir = "migrations/mysql"
	}

	// goose keeps dialect and filesystem in package state.
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db.DB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
