package seed

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/Simplici0/buildquote/internal/catalog"
	"github.com/Simplici0/buildquote/internal/db"
	"github.com/Simplici0/buildquote/internal/migrations"
)

func newSeedTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	database := newSeedTestDB(t)
	ctx := context.Background()

	entries, err := parseCatalog(defaultCatalog)
	if err != nil {
		t.Fatalf("parse embedded catalog: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("embedded catalog is empty")
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database, Config{})
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != len(entries) {
				t.Fatalf("expected %d inserts in first run, got %d", len(entries), stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Skipped != len(entries) {
			t.Fatalf("expected 0 inserts in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM materials`, len(entries))
	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE id = ?`, 1, "m-fiber-cement-lap")
}

func TestRunKeepsEditedEntries(t *testing.T) {
	t.Parallel()

	database := newSeedTestDB(t)
	ctx := context.Background()
	if _, err := Run(ctx, database, Config{}); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	store := catalog.NewStore(database)
	e, ok, err := store.Get(ctx, "m-oil-stain")
	if err != nil || !ok {
		t.Fatalf("get seeded entry: ok=%v err=%v", ok, err)
	}
	e.Active = false
	if err := store.Upsert(ctx, e); err != nil {
		t.Fatalf("deactivate entry: %v", err)
	}

	if _, err := Run(ctx, database, Config{}); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	e, _, err = store.Get(ctx, "m-oil-stain")
	if err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if e.Active {
		t.Fatalf("seed must not reactivate an edited entry")
	}
}

func TestRunFromCatalogFile(t *testing.T) {
	t.Parallel()

	database := newSeedTestDB(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := []byte(`
materials:
  - id: m-custom
    title: Custom Coating
    category: coating
    cost_index: 2
    durability_years: 9
    maintenance: low
    uv_resistance: medium
    moisture_resistance: medium
    salt_resistance: low
    suitable_substrates: [stucco]
    is_active: true
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	stats, err := Run(context.Background(), database, Config{CatalogPath: path})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 1 {
		t.Fatalf("expected 1 insert, got %+v", stats)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE id = ?`, 1, "m-custom")
}

func TestParseCatalogRejectsBadEntries(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing id":       "materials:\n  - title: x\n",
		"duplicate id":     "materials:\n  - {id: a, category: paint, cost_index: 1, maintenance: low, uv_resistance: low, moisture_resistance: low, salt_resistance: low}\n  - {id: a, category: paint, cost_index: 1, maintenance: low, uv_resistance: low, moisture_resistance: low, salt_resistance: low}\n",
		"cost index":       "materials:\n  - {id: a, category: paint, cost_index: 9, maintenance: low, uv_resistance: low, moisture_resistance: low, salt_resistance: low}\n",
		"unknown level":    "materials:\n  - {id: a, category: paint, cost_index: 2, maintenance: never, uv_resistance: low, moisture_resistance: low, salt_resistance: low}\n",
		"unknown category": "materials:\n  - {id: a, category: glitter, cost_index: 2, maintenance: low, uv_resistance: low, moisture_resistance: low, salt_resistance: low}\n",
	}
	for name, raw := range cases {
		if _, err := parseCatalog([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int, args ...any) {
	t.Helper()

	var count int
	if err := database.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
