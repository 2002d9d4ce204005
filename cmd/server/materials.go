package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/materials"
	"github.com/Simplici0/buildquote/internal/packages"
)

const maxLongevityYears = 100

// scoreRequest is the JSON body of POST /api/materials/score. Omitted
// weights fall back to the defaults rather than the zero vector.
type scoreRequest struct {
	materials.Criteria
	Weights *materials.Weights `json:"weights"`
	Limit   int                `json:"limit"`
}

type scoreResponse struct {
	Results []materials.Scored `json:"results"`
	Total   int                `json:"total"`
}

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": entries})
}

func (s *server) handleMaterialsScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	limit := req.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	criteria := req.Criteria
	criteria.Weights = materials.DefaultWeights()
	if req.Weights != nil {
		criteria.Weights = *req.Weights
	}
	if err := validateCriteria(criteria); err != nil {
		s.writeError(w, r, err)
		return
	}

	entries, err := s.catalog.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scored, err := materials.Score(entries, criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	total := len(scored)
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	writeJSON(w, http.StatusOK, scoreResponse{Results: scored, Total: total})
}

// validateCriteria rejects criteria the scoring engine would treat as a bug.
func validateCriteria(c materials.Criteria) error {
	if len(c.Substrates) == 0 {
		return apperr.Invalid("substrate", apperr.CodeRequired, "select at least one substrate")
	}
	if c.LongevityYears <= 0 || c.LongevityYears > maxLongevityYears {
		return apperr.Invalid("longevity", apperr.CodeOutOfRange, "target longevity must be between 1 and %d years", maxLongevityYears)
	}
	switch c.Budget {
	case "", materials.BudgetEconomy, materials.BudgetStandard, materials.BudgetPremium:
	default:
		return apperr.Invalid("budgetTier", apperr.CodeOutOfRange, "unknown budget tier %q", c.Budget)
	}
	for _, v := range []float64{c.Weights.Durability, c.Weights.Cost, c.Weights.Maintenance, c.Weights.Climate, c.Weights.Sustainability} {
		if v < 0 {
			return apperr.Invalid("weights", apperr.CodeNegativeWeights, "weights must not be negative")
		}
	}
	return nil
}

func (s *server) handlePackagesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.packages.ListFor(r.Context(), visitorFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": list})
}

func (s *server) handlePackagesCreate(w http.ResponseWriter, r *http.Request) {
	var req packages.SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	p, err := s.packages.Save(r.Context(), visitorFrom(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("package saved", "package_id", p.ID, "materials", len(p.MaterialIDs))
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handlePackageDetail(w http.ResponseWriter, r *http.Request) {
	p, err := s.packages.Get(r.Context(), visitorFrom(r.Context()), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePackageUpdate(w http.ResponseWriter, r *http.Request) {
	var req packages.SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	p, err := s.packages.Update(r.Context(), visitorFrom(r.Context()), strings.TrimSpace(chi.URLParam(r, "id")), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
