package packages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Simplici0/buildquote/internal/db"
)

// SQLiteStore keeps packages in the material_packages table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// Insert writes p in a single transaction so a package is stored whole or not at all.
func (s *SQLiteStore) Insert(ctx context.Context, p Package) error {
	ids, criteria, weights, err := encode(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin package transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO material_packages (
			id, owner_id, name, notes, material_ids_json, criteria_json, weights_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OwnerID, p.Name, p.Notes, ids, criteria, weights, db.FormatTime(p.CreatedAt), db.FormatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit package transaction: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's packages ordered newest first.
func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, notes, material_ids_json, criteria_json, weights_json, created_at, updated_at
		FROM material_packages
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	out := make([]Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return out, nil
}

// Get returns the package only when it belongs to ownerID.
func (s *SQLiteStore) Get(ctx context.Context, ownerID, id string) (Package, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, notes, material_ids_json, criteria_json, weights_json, created_at, updated_at
		FROM material_packages
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Package{}, false, nil
	}
	if err != nil {
		return Package{}, false, err
	}
	return p, true, nil
}

// Update rewrites an existing package. It reports false when no row matched
// both id and owner.
func (s *SQLiteStore) Update(ctx context.Context, p Package) (bool, error) {
	ids, criteria, weights, err := encode(p)
	if err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE material_packages
		SET
			name = ?,
			notes = ?,
			material_ids_json = ?,
			criteria_json = ?,
			weights_json = ?,
			updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, p.Name, p.Notes, ids, criteria, weights, db.FormatTime(p.UpdatedAt), p.ID, p.OwnerID)
	if err != nil {
		return false, fmt.Errorf("update package: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update package: %w", err)
	}
	return affected > 0, nil
}

func encode(p Package) (ids, criteria, weights string, err error) {
	idsJSON, err := json.Marshal(p.MaterialIDs)
	if err != nil {
		return "", "", "", fmt.Errorf("encode material ids: %w", err)
	}
	criteriaJSON, err := json.Marshal(p.Criteria)
	if err != nil {
		return "", "", "", fmt.Errorf("encode criteria: %w", err)
	}
	weightsJSON, err := json.Marshal(p.Weights)
	if err != nil {
		return "", "", "", fmt.Errorf("encode weights: %w", err)
	}
	return string(idsJSON), string(criteriaJSON), string(weightsJSON), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(sc scanner) (Package, error) {
	var (
		p                              Package
		idsJSON, criteriaJSON, weights string
		createdAt, updatedAt           string
	)
	if err := sc.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Notes, &idsJSON, &criteriaJSON, &weights, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Package{}, err
		}
		return Package{}, fmt.Errorf("scan package: %w", err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &p.MaterialIDs); err != nil {
		return Package{}, fmt.Errorf("decode material ids for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(criteriaJSON), &p.Criteria); err != nil {
		return Package{}, fmt.Errorf("decode criteria for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(weights), &p.Weights); err != nil {
		return Package{}, fmt.Errorf("decode weights for %s: %w", p.ID, err)
	}
	var err error
	if p.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return Package{}, fmt.Errorf("package %s created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return Package{}, fmt.Errorf("package %s updated_at: %w", p.ID, err)
	}
	return p, nil
}
