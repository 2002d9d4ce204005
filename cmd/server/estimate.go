package main

import (
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/pricing"
	"github.com/Simplici0/buildquote/internal/quotes"
)

// estimateRequest is the JSON body of POST /api/estimate.
type estimateRequest struct {
	pricing.EstimateInput
	Title string `json:"title"`
	Notes string `json:"notes"`
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, err := s.readEstimateRequest(w, r)
	if err != nil {
		if _, ok := apperr.KindOf(err); ok {
			s.writeError(w, r, err)
			return
		}
		badRequest(w, "invalid request body")
		return
	}

	result, err := pricing.Estimate(req.EstimateInput, s.pricing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !wantsSave(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}

	q, err := s.quotes.Save(r.Context(), visitorFrom(r.Context()), req.Title, req.Notes, req.EstimateInput, result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("quote saved", "quote_id", q.ID, "min", q.Min, "max", q.Max, "config_version", q.ConfigVersion)
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) readEstimateRequest(w http.ResponseWriter, r *http.Request) (estimateRequest, error) {
	if isJSON(r) {
		var req estimateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return estimateRequest{}, err
		}
		req.Title = strings.TrimSpace(req.Title)
		req.Notes = strings.TrimSpace(req.Notes)
		req.AddOns.Scaffolding = scaffoldingTier(string(req.AddOns.Scaffolding))
		if err := pricing.ValidateInput(req.EstimateInput); err != nil {
			return estimateRequest{}, err
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return estimateRequest{}, err
	}
	return parseEstimateForm(r)
}

// parseEstimateForm reads and validates the estimate form. It is the primary
// validation layer in front of the estimator.
func parseEstimateForm(r *http.Request) (estimateRequest, error) {
	req := estimateRequest{
		EstimateInput: pricing.EstimateInput{
			Service: pricing.ServiceKind(strings.TrimSpace(r.FormValue("service"))),
			Stories: pricing.Stories(strings.TrimSpace(r.FormValue("stories"))),
			Prep:    pricing.PrepComplexity(strings.TrimSpace(r.FormValue("prep"))),
			Finish:  pricing.FinishQuality(strings.TrimSpace(r.FormValue("finish"))),
			Region:  pricing.Region(strings.TrimSpace(r.FormValue("region"))),
			AddOns: pricing.AddOns{
				Scaffolding:       scaffoldingTier(r.FormValue("scaffolding")),
				ColorConsultation: checked(r.FormValue("color_consultation")),
				Rush:              checked(r.FormValue("rush")),
				Warranty:          checked(r.FormValue("warranty")),
				Cleanup:           checked(r.FormValue("cleanup")),
			},
		},
		Title: strings.TrimSpace(r.FormValue("title")),
		Notes: strings.TrimSpace(r.FormValue("notes")),
	}

	if req.Service == "" {
		req.Service = pricing.ServiceResidentialPainting
	}
	if req.Stories == "" {
		req.Stories = pricing.StoriesOne
	}
	if req.Prep == "" {
		req.Prep = pricing.PrepNone
	}
	if req.Finish == "" {
		req.Finish = pricing.FinishStandard
	}

	sqft, err := parseSquareFeet(r.FormValue("sqft"))
	if err != nil {
		return req, err
	}
	req.SquareFeet = sqft

	if req.Region == "" {
		return req, apperr.Invalid("region", apperr.CodeRequired, "region is required")
	}

	if err := pricing.ValidateInput(req.EstimateInput); err != nil {
		return req, err
	}
	return req, nil
}

// scaffoldingTier accepts "none" as an explicit spelling of no scaffolding.
func scaffoldingTier(raw string) pricing.ScaffoldingTier {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "none") {
		return pricing.ScaffoldingNone
	}
	return pricing.ScaffoldingTier(raw)
}

func parseSquareFeet(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, apperr.Invalid("sqft", apperr.CodeRequired, "square footage is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) {
		return 0, apperr.Invalid("sqft", apperr.CodeOutOfRange, "square footage must be a number")
	}
	if value < pricing.MinSquareFeet || value > pricing.MaxSquareFeet {
		return 0, apperr.Invalid("sqft", apperr.CodeOutOfRange, "square footage must be between %d and %d",
			pricing.MinSquareFeet, pricing.MaxSquareFeet)
	}
	return value, nil
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}

func wantsSave(r *http.Request) bool {
	return checked(r.URL.Query().Get("save"))
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := s.quotes.List(r.Context(), visitorFrom(r.Context()), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "quotes": items})
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quotes.RenderText(q)))
}

func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (quotes.Quote, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid quote id")
		return quotes.Quote{}, false
	}
	q, err := s.quotes.Get(r.Context(), visitorFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return quotes.Quote{}, false
	}
	return q, true
}
