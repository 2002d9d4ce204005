package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/buildquote/internal/catalog"
	"github.com/Simplici0/buildquote/internal/materials"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Config contains the values required by startup seed.
type Config struct {
	// CatalogPath overrides the embedded catalog when set.
	CatalogPath string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

type catalogFile struct {
	Materials []materials.Entry `yaml:"materials"`
}

// Run executes the startup seed in an idempotent way. Entries whose id
// already exists are left untouched.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	entries, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return Stats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, e := range entries {
		inserted, err := catalog.InsertIfMissing(ctx, tx, e)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		if inserted {
			stats.Inserts++
		} else {
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func loadCatalog(path string) ([]materials.Entry, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed catalog: %w", err)
		}
		raw = b
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) ([]materials.Entry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Materials))
	for _, e := range f.Materials {
		if e.ID == "" {
			return nil, fmt.Errorf("seed catalog: material without id")
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("seed catalog: duplicate id %s", e.ID)
		}
		seen[e.ID] = struct{}{}
		if !slices.Contains(materials.Categories, e.Category) {
			return nil, fmt.Errorf("seed catalog: %s has unknown category %q", e.ID, e.Category)
		}
		if e.CostIndex < 1 || e.CostIndex > 5 {
			return nil, fmt.Errorf("seed catalog: %s cost_index %d outside 1..5", e.ID, e.CostIndex)
		}
		for _, l := range []materials.Level{e.Maintenance, e.UVResistance, e.MoistureResistance, e.SaltResistance} {
			if !l.Valid() {
				return nil, fmt.Errorf("seed catalog: %s has unknown level %q", e.ID, l)
			}
		}
	}
	return f.Materials, nil
}
