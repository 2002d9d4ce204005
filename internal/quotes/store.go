// Package quotes keeps a ledger of estimates handed to customers.
// A stored quote is a snapshot and is never recomputed on read.
package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/db"
	"github.com/Simplici0/buildquote/internal/pricing"
)

// Quote is a persisted estimate. Quotes belong to the visitor that saved them.
type Quote struct {
	ID            int64                 `json:"id"`
	OwnerID       string                `json:"-"`
	CreatedAt     time.Time             `json:"createdAt"`
	Title         string                `json:"title"`
	Notes         string                `json:"notes"`
	ConfigVersion string                `json:"configVersion"`
	Currency      string                `json:"currency"`
	Min           int64                 `json:"min"`
	Max           int64                 `json:"max"`
	Input         pricing.EstimateInput `json:"input"`
	Result        pricing.Result        `json:"result"`
}

// ListItem is the summary row shown in the quote list.
type ListItem struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Currency  string    `json:"currency"`
	Min       int64     `json:"min"`
	Max       int64     `json:"max"`
}

// Store reads and writes the quotes table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Save records an estimate for ownerID together with the input that produced it.
func (s *Store) Save(ctx context.Context, ownerID, title, notes string, in pricing.EstimateInput, res pricing.Result) (Quote, error) {
	ownerID, err := requireOwner(ownerID)
	if err != nil {
		return Quote{}, err
	}
	inputJSON, err := json.Marshal(in)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote input: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote result: %w", err)
	}

	q := Quote{
		OwnerID:       ownerID,
		CreatedAt:     s.now().UTC(),
		Title:         strings.TrimSpace(title),
		Notes:         strings.TrimSpace(notes),
		ConfigVersion: res.ConfigVersion,
		Currency:      res.Currency,
		Min:           res.Min,
		Max:           res.Max,
		Input:         in,
		Result:        res,
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (owner_id, created_at, title, notes, config_version, currency, min_total, max_total, input_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.OwnerID, db.FormatTime(q.CreatedAt), q.Title, q.Notes, q.ConfigVersion, q.Currency, q.Min, q.Max, string(inputJSON), string(resultJSON))
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	q.ID, err = result.LastInsertId()
	if err != nil {
		return Quote{}, fmt.Errorf("read quote id: %w", err)
	}
	return q, nil
}

// List returns ownerID's quotes newest first. A non-empty query filters on
// title or notes.
func (s *Store) List(ctx context.Context, ownerID, query string) ([]ListItem, error) {
	ownerID, err := requireOwner(ownerID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, COALESCE(title, ''), currency, min_total, max_total
		FROM quotes
		WHERE owner_id = ?
		  AND (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY created_at DESC, id DESC
	`, ownerID, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var (
			item      ListItem
			createdAt string
		)
		if err := rows.Scan(&item.ID, &createdAt, &item.Title, &item.Currency, &item.Min, &item.Max); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if item.CreatedAt, err = db.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("quote %d created_at: %w", item.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return items, nil
}

// Get loads the full snapshot of one of ownerID's quotes. Quotes saved by
// other visitors are reported as not found.
func (s *Store) Get(ctx context.Context, ownerID string, id int64) (Quote, error) {
	ownerID, err := requireOwner(ownerID)
	if err != nil {
		return Quote{}, err
	}
	var (
		q                     Quote
		createdAt             string
		inputJSON, resultJSON string
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, created_at, COALESCE(title, ''), COALESCE(notes, ''), config_version, currency, min_total, max_total, input_json, result_json
		FROM quotes
		WHERE id = ? AND owner_id = ?
	`, id, ownerID).Scan(&q.ID, &q.OwnerID, &createdAt, &q.Title, &q.Notes, &q.ConfigVersion, &q.Currency, &q.Min, &q.Max, &inputJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, apperr.New(apperr.KindNotFound, apperr.CodeQuoteNotFound, "quote %d not found", id)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote %d: %w", id, err)
	}

	if q.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return Quote{}, fmt.Errorf("quote %d created_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(inputJSON), &q.Input); err != nil {
		return Quote{}, fmt.Errorf("decode quote %d input: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &q.Result); err != nil {
		return Quote{}, fmt.Errorf("decode quote %d result: %w", id, err)
	}
	return q, nil
}

func requireOwner(ownerID string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", apperr.Invalid("owner", apperr.CodeRequired, "owner is required")
	}
	return ownerID, nil
}
