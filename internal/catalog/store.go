// Package catalog persists the material catalog the scoring engine reads.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/buildquote/internal/materials"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store reads and writes catalog entries in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	id, title, brand, category, cost_index, durability_years, r_value,
	recycled_content_pct, warranty_years, maintenance, uv_resistance,
	moisture_resistance, salt_resistance, suitable_substrates_json, is_active`

// ListActive returns every active entry ordered by id.
func (s *Store) ListActive(ctx context.Context) ([]materials.Entry, error) {
	return s.query(ctx, `SELECT`+selectColumns+` FROM materials WHERE is_active = TRUE ORDER BY id`)
}

// List returns every entry, active or not, ordered by id.
func (s *Store) List(ctx context.Context) ([]materials.Entry, error) {
	return s.query(ctx, `SELECT`+selectColumns+` FROM materials ORDER BY id`)
}

// Get returns the entry with the given id. The bool is false when absent.
func (s *Store) Get(ctx context.Context, id string) (materials.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM materials WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return materials.Entry{}, false, nil
	}
	if err != nil {
		return materials.Entry{}, false, fmt.Errorf("query material %s: %w", id, err)
	}
	return e, true, nil
}

// MissingIDs returns the subset of ids with no active catalog entry, in input order.
func (s *Store) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM materials WHERE is_active = TRUE AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query material ids: %w", err)
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan material id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material ids: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Upsert inserts or replaces an entry.
func (s *Store) Upsert(ctx context.Context, e materials.Entry) error {
	subs, err := json.Marshal(nonNil(e.Substrates))
	if err != nil {
		return fmt.Errorf("encode substrates: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO materials (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			brand = excluded.brand,
			category = excluded.category,
			cost_index = excluded.cost_index,
			durability_years = excluded.durability_years,
			r_value = excluded.r_value,
			recycled_content_pct = excluded.recycled_content_pct,
			warranty_years = excluded.warranty_years,
			maintenance = excluded.maintenance,
			uv_resistance = excluded.uv_resistance,
			moisture_resistance = excluded.moisture_resistance,
			salt_resistance = excluded.salt_resistance,
			suitable_substrates_json = excluded.suitable_substrates_json,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`, entryArgs(e, string(subs))...)
	if err != nil {
		return fmt.Errorf("upsert material %s: %w", e.ID, err)
	}
	return nil
}

// InsertIfMissing inserts e unless an entry with the same id exists.
// It reports whether a row was written.
func InsertIfMissing(ctx context.Context, ex Execer, e materials.Entry) (bool, error) {
	subs, err := json.Marshal(nonNil(e.Substrates))
	if err != nil {
		return false, fmt.Errorf("encode substrates: %w", err)
	}
	res, err := ex.ExecContext(ctx, `
		INSERT OR IGNORE INTO materials (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entryArgs(e, string(subs))...)
	if err != nil {
		return false, fmt.Errorf("insert material %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert material %s: %w", e.ID, err)
	}
	return n > 0, nil
}

func entryArgs(e materials.Entry, substratesJSON string) []any {
	return []any{
		e.ID, e.Title, e.Brand, string(e.Category), e.CostIndex, e.Durability, e.RValue,
		e.RecycledPct, e.WarrantyYears, string(e.Maintenance), string(e.UVResistance),
		string(e.MoistureResistance), string(e.SaltResistance), substratesJSON, e.Active,
	}
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]materials.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	entries := make([]materials.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (materials.Entry, error) {
	var (
		e                                materials.Entry
		category, maint, uv, moist, salt string
		subsJSON                         string
	)
	if err := sc.Scan(
		&e.ID, &e.Title, &e.Brand, &category, &e.CostIndex, &e.Durability, &e.RValue,
		&e.RecycledPct, &e.WarrantyYears, &maint, &uv, &moist, &salt, &subsJSON, &e.Active,
	); err != nil {
		return materials.Entry{}, err
	}
	e.Category = materials.Category(category)
	e.Maintenance = materials.Level(maint)
	e.UVResistance = materials.Level(uv)
	e.MoistureResistance = materials.Level(moist)
	e.SaltResistance = materials.Level(salt)
	if err := json.Unmarshal([]byte(subsJSON), &e.Substrates); err != nil {
		return materials.Entry{}, fmt.Errorf("decode substrates for %s: %w", e.ID, err)
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
