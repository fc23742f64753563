package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
)

const sqliteDialect = "sqlite3"

// Up runs all pending SQL migrations found in migrationsDir.
func Up(db *sql.DB, migrationsDir string) error {
	if err := prepare(migrationsDir); err != nil {
		return err
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version reports the schema version currently applied to db.
func Version(db *sql.DB, migrationsDir string) (int64, error) {
	if err := prepare(migrationsDir); err != nil {
		return 0, err
	}

	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read goose db version: %w", err)
	}
	return v, nil
}

func prepare(migrationsDir string) error {
	info, err := os.Stat(migrationsDir)
	if err != nil {
		return fmt.Errorf("migrations dir %q: %w", migrationsDir, err)
	}
	if !info.IsDir() {
		return errors.New("migrations path " + migrationsDir + " is not a directory")
	}

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	return nil
}
