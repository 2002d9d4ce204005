package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/catalog"
	"github.com/Simplici0/buildquote/internal/logger"
	"github.com/Simplici0/buildquote/internal/packages"
	"github.com/Simplici0/buildquote/internal/pricing"
	"github.com/Simplici0/buildquote/internal/quotes"
)

const maxBodyBytes = 1 << 20

type server struct {
	db       *sql.DB
	log      *logger.Logger
	pricing  pricing.Configuration
	catalog  *catalog.Store
	packages *packages.Assembler
	quotes   *quotes.Store
	visitors *visitorService
}

func newServer(database *sql.DB, log *logger.Logger, pricingCfg pricing.Configuration, visitors *visitorService) *server {
	cat := catalog.NewStore(database)
	return &server{
		db:       database,
		log:      log,
		pricing:  pricingCfg,
		catalog:  cat,
		packages: packages.NewAssembler(packages.NewSQLiteStore(database), cat),
		quotes:   quotes.NewStore(database),
		visitors: visitors,
	}
}

func (s *server) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.visitors.middleware)

		r.Post("/estimate", s.handleEstimate)

		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteDetail)
		r.Get("/quotes/{id}/text", s.handleQuoteText)

		r.Get("/materials", s.handleMaterialsList)
		r.Post("/materials/score", s.handleMaterialsScore)

		r.Get("/packages", s.handlePackagesList)
		r.Post("/packages", s.handlePackagesCreate)
		r.Get("/packages/{id}", s.handlePackageDetail)
		r.Put("/packages/{id}", s.handlePackageUpdate)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"pricingVersion": s.pricing.Version,
	})
}

type errorBody struct {
	Error *apperr.Error `json:"error"`
}

// writeError maps core error kinds onto HTTP statuses. Configuration and
// invariant failures are logged and shown as a temporary outage.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		switch {
		case e.Kind.Retryable():
			s.log.Error("request failed", "path", r.URL.Path, "kind", e.Kind.String(), "code", e.Code, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: &apperr.Error{
				Code:    e.Code,
				Message: "we could not produce this right now, please try again later",
			}})
		case e.Kind == apperr.KindNotFound:
			writeJSON(w, http.StatusNotFound, errorBody{Error: e})
		default:
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: e})
		}
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn("request abandoned", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: &apperr.Error{Code: "UNAVAILABLE", Message: "request timed out"}})
		return
	}

	s.log.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: &apperr.Error{Code: "INTERNAL", Message: "internal error"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: &apperr.Error{Code: "BAD_REQUEST", Message: message}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
