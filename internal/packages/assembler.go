// Package packages saves and lists a homeowner's shortlisted materials.
package packages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/materials"
)

// MaxMaterials caps how many materials one package may hold.
const MaxMaterials = 3

const (
	maxNameLen  = 120
	maxNotesLen = 2000
)

// Package is a saved shortlist together with the criteria that produced it.
type Package struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"-"`
	Name        string             `json:"name"`
	Notes       string             `json:"notes"`
	MaterialIDs []string           `json:"materialIds"`
	Criteria    materials.Criteria `json:"criteria"`
	Weights     materials.Weights  `json:"weights"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// SaveRequest carries the caller-supplied fields of a package. When Weights
// is omitted the weights inside Criteria are used.
type SaveRequest struct {
	Criteria    materials.Criteria `json:"criteria"`
	Weights     *materials.Weights `json:"weights,omitempty"`
	MaterialIDs []string           `json:"materialIds"`
	Name        string             `json:"name"`
	Notes       string             `json:"notes"`
}

// Store persists packages. Reads are always scoped to an owner.
type Store interface {
	Insert(ctx context.Context, p Package) error
	ListByOwner(ctx context.Context, ownerID string) ([]Package, error)
	Get(ctx context.Context, ownerID, id string) (Package, bool, error)
	Update(ctx context.Context, p Package) (bool, error)
}

// CatalogLookup reports which material ids are not in the active catalog.
type CatalogLookup interface {
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
}

// Assembler enforces package rules in front of a Store.
type Assembler struct {
	store   Store
	catalog CatalogLookup
	now     func() time.Time
	newID   func() string
}

// NewAssembler returns an Assembler. catalog may be nil to skip the
// known-material check.
func NewAssembler(store Store, catalog CatalogLookup) *Assembler {
	return &Assembler{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Save validates req and stores it as a new package owned by ownerID.
func (a *Assembler) Save(ctx context.Context, ownerID string, req SaveRequest) (Package, error) {
	if err := ctx.Err(); err != nil {
		return Package{}, err
	}
	p, err := a.build(ctx, ownerID, req)
	if err != nil {
		return Package{}, err
	}

	now := a.now().UTC()
	p.ID = a.newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := a.store.Insert(ctx, p); err != nil {
		return Package{}, fmt.Errorf("save package: %w", err)
	}
	return p, nil
}

// ListFor returns ownerID's packages, newest first. An owner with no
// packages gets an empty slice.
func (a *Assembler) ListFor(ctx context.Context, ownerID string) ([]Package, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperr.Invalid("owner", apperr.CodeRequired, "owner is required")
	}
	out, err := a.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	if out == nil {
		out = []Package{}
	}
	return out, nil
}

// Get returns one of ownerID's packages. Packages of other owners are
// reported as not found.
func (a *Assembler) Get(ctx context.Context, ownerID, id string) (Package, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Package{}, apperr.Invalid("owner", apperr.CodeRequired, "owner is required")
	}
	p, ok, err := a.store.Get(ctx, ownerID, id)
	if err != nil {
		return Package{}, fmt.Errorf("get package: %w", err)
	}
	if !ok {
		return Package{}, notFound(id)
	}
	return p, nil
}

// Update replaces the contents of an existing package under the same rules
// as Save. CreatedAt is preserved.
func (a *Assembler) Update(ctx context.Context, ownerID, id string, req SaveRequest) (Package, error) {
	if err := ctx.Err(); err != nil {
		return Package{}, err
	}
	p, err := a.build(ctx, ownerID, req)
	if err != nil {
		return Package{}, err
	}
	existing, ok, err := a.store.Get(ctx, p.OwnerID, id)
	if err != nil {
		return Package{}, fmt.Errorf("get package: %w", err)
	}
	if !ok {
		return Package{}, notFound(id)
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = a.now().UTC()

	updated, err := a.store.Update(ctx, p)
	if err != nil {
		return Package{}, fmt.Errorf("update package: %w", err)
	}
	if !updated {
		return Package{}, notFound(id)
	}
	return p, nil
}

func (a *Assembler) build(ctx context.Context, ownerID string, req SaveRequest) (Package, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Package{}, apperr.Invalid("owner", apperr.CodeRequired, "owner is required")
	}

	ids, err := cleanIDs(req.MaterialIDs)
	if err != nil {
		return Package{}, err
	}

	name := strings.TrimSpace(req.Name)
	notes := strings.TrimSpace(req.Notes)
	if len(name) > maxNameLen {
		return Package{}, apperr.Invalid("name", apperr.CodeOutOfRange, "name must be at most %d characters", maxNameLen)
	}
	if len(notes) > maxNotesLen {
		return Package{}, apperr.Invalid("notes", apperr.CodeOutOfRange, "notes must be at most %d characters", maxNotesLen)
	}

	weights := req.Criteria.Weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	if _, err := weights.Normalize(true); err != nil {
		return Package{}, err
	}

	if a.catalog != nil {
		missing, err := a.catalog.MissingIDs(ctx, ids)
		if err != nil {
			return Package{}, fmt.Errorf("check catalog: %w", err)
		}
		if len(missing) > 0 {
			return Package{}, apperr.Invalid("materialIds", apperr.CodeUnknownMaterial, "unknown materials: %s", strings.Join(missing, ", "))
		}
	}

	criteria := req.Criteria
	criteria.Weights = weights
	return Package{
		OwnerID:     ownerID,
		Name:        name,
		Notes:       notes,
		MaterialIDs: ids,
		Criteria:    criteria,
		Weights:     weights,
	}, nil
}

// cleanIDs trims ids and enforces the 1..MaxMaterials cap without truncating.
func cleanIDs(raw []string) ([]string, error) {
	if len(raw) > MaxMaterials {
		return nil, apperr.New(apperr.KindCapacity, apperr.CodeTooManyMaterials,
			"a package holds at most %d materials, got %d", MaxMaterials, len(raw))
	}
	ids := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperr.Invalid("materialIds", apperr.CodeRequired, "material id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, apperr.Invalid("materialIds", apperr.CodeDuplicateMaterial, "material %s listed twice", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apperr.Invalid("materialIds", apperr.CodeRequired, "select at least one material")
	}
	return ids, nil
}

func notFound(id string) error {
	return apperr.New(apperr.KindNotFound, apperr.CodePackageNotFound, "package %s not found", id)
}
