package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/teekiosk/internal/db"
	"github.com/Simplici0/teekiosk/internal/migrations"
	"github.com/Simplici0/teekiosk/internal/pricing"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openMigrated(t)
	cfg := Config{Table: pricing.DefaultTable()}

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 8 {
				t.Fatalf("expected 8 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM product_variants`, nil, 8)
	assertCount(t, database, `SELECT COUNT(*) FROM product_variants WHERE thickness = ?`, 180, 4)
	assertCount(t, database, `SELECT COUNT(*) FROM product_variants WHERE size = ? AND thickness = ? AND base_price = ?`, []any{"M", 240, "499.00"}, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM product_variants WHERE thickness_name = ?`, "Forma flow", 4)
}

func TestRunUpdatesChangedBasePrice(t *testing.T) {
	database := openMigrated(t)

	if _, err := Run(database, Config{Table: pricing.DefaultTable()}); err != nil {
		t.Fatalf("initial seed: %v", err)
	}

	table := pricing.DefaultTable()
	table.BaseCosts[180] = decimal.RequireFromString("379")
	table.BaseCosts[300] = decimal.RequireFromString("599")

	stats, err := Run(database, Config{Table: table, Colors: []string{"black"}})
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if stats.Updates != 4 || stats.Inserts != 4 {
		t.Fatalf("expected 4 updates and 4 inserts, got %+v", stats)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM product_variants WHERE thickness = ? AND base_price = ?`, []any{180, "379.00"}, 4)
	assertCount(t, database, `SELECT COUNT(*) FROM product_variants WHERE thickness_name = ?`, "300 GSM", 4)
}

func TestRunRejectsEmptyTable(t *testing.T) {
	database := openMigrated(t)

	if _, err := Run(database, Config{}); err == nil {
		t.Fatalf("expected error for empty table")
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
