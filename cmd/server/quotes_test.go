package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/buildquote/internal/db"
	"github.com/Simplici0/buildquote/internal/logger"
	"github.com/Simplici0/buildquote/internal/migrations"
	"github.com/Simplici0/buildquote/internal/pricing"
	"github.com/Simplici0/buildquote/internal/quotes"
	"github.com/Simplici0/buildquote/internal/seed"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *server {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(context.Background(), database, seed.Config{}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	cfg, err := pricing.DefaultConfiguration()
	if err != nil {
		t.Fatalf("default pricing: %v", err)
	}
	return newServer(database, logger.NewNop(), cfg, newVisitorService(testSecret, false))
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// visitorCookie makes a first API request and returns the issued cookie.
func visitorCookie(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := doJSON(t, h, http.MethodGet, "/api/quotes", nil)
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("expected a %s cookie, got %v", sessionCookieName, rr.Result().Cookies())
	return nil
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func jsonEstimate() map[string]any {
	return map[string]any{
		"service": "residential_painting",
		"sqft":    1000,
		"stories": "2",
		"prep":    "heavy",
		"finish":  "premium",
		"region":  "suburban",
		"addOns":  map[string]any{"scaffolding": "standard"},
		"title":   "Smith residence",
		"notes":   "north wall peeling",
	}
}

func TestHandleEstimateJSONMatchesEstimator(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes(5 * time.Second)

	rr := doJSON(t, h, http.MethodPost, "/api/estimate", jsonEstimate())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got pricing.Result
	decodeBody(t, rr, &got)

	want, err := pricing.Estimate(pricing.EstimateInput{
		Service:    pricing.ServiceResidentialPainting,
		SquareFeet: 1000,
		Stories:    pricing.StoriesTwo,
		Prep:       pricing.PrepHeavy,
		Finish:     pricing.FinishPremium,
		Region:     pricing.RegionSuburban,
		AddOns:     pricing.AddOns{Scaffolding: pricing.ScaffoldingStandard},
	}, srv.pricing)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got.Min != want.Min || got.Max != want.Max {
		t.Fatalf("range = [%d,%d], want [%d,%d]", got.Min, got.Max, want.Min, want.Max)
	}
	if got.Explanation != want.Explanation {
		t.Fatalf("explanation = %q, want %q", got.Explanation, want.Explanation)
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Fatalf("expected the first API request to issue a visitor cookie")
	}
}

func TestHandleEstimateJSONAcceptsScaffoldingNone(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes(5 * time.Second)

	body := jsonEstimate()
	body["addOns"] = map[string]any{"scaffolding": "none"}
	rr := doJSON(t, h, http.MethodPost, "/api/estimate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got pricing.Result
	decodeBody(t, rr, &got)
	for _, item := range got.Breakdown.AddOns {
		if strings.HasPrefix(item.Name, "scaffolding") {
			t.Fatalf("expected no scaffolding line item, got %+v", got.Breakdown.AddOns)
		}
	}
}

func TestHandleEstimateFormAndSave(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes(5 * time.Second)
	me := visitorCookie(t, h)

	form := estimateForm()
	req := httptest.NewRequest(http.MethodPost, "/api/estimate?save=1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(me)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var q quotes.Quote
	decodeBody(t, rr, &q)
	if q.ID <= 0 || q.Title != "Smith residence" || q.ConfigVersion != srv.pricing.Version || q.Min > q.Max {
		t.Fatalf("unexpected saved quote: %+v", q)
	}
	if strings.Contains(rr.Body.String(), "ownerId") || strings.Contains(rr.Body.String(), "OwnerID") {
		t.Fatalf("owner id leaked in response: %s", rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/quotes?q=Smith", nil, me)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var list struct {
		Quotes []quotes.ListItem `json:"quotes"`
	}
	decodeBody(t, rr, &list)
	if len(list.Quotes) != 1 || list.Quotes[0].ID != q.ID {
		t.Fatalf("expected quote %d in list, got %+v", q.ID, list.Quotes)
	}
}

func TestQuotesAreVisibleOnlyToTheirVisitor(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes(5 * time.Second)
	alice := visitorCookie(t, h)
	bob := visitorCookie(t, h)

	rr := doJSON(t, h, http.MethodPost, "/api/estimate?save=1", jsonEstimate(), alice)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved quotes.Quote
	decodeBody(t, rr, &saved)

	var list struct {
		Quotes []quotes.ListItem `json:"quotes"`
	}
	decodeBody(t, doJSON(t, h, http.MethodGet, "/api/quotes", nil, bob), &list)
	if len(list.Quotes) != 0 {
		t.Fatalf("expected another visitor to see no quotes, got %+v", list.Quotes)
	}

	// Requests without a cookie get a fresh visitor and see nothing either.
	decodeBody(t, doJSON(t, h, http.MethodGet, "/api/quotes", nil), &list)
	if len(list.Quotes) != 0 {
		t.Fatalf("expected a new visitor to see no quotes, got %+v", list.Quotes)
	}

	for _, path := range []string{"/api/quotes/%d", "/api/quotes/%d/text"} {
		target := fmt.Sprintf(path, saved.ID)
		if rr := doJSON(t, h, http.MethodGet, target, nil, bob); rr.Code != http.StatusNotFound {
			t.Fatalf("%s as another visitor: expected 404, got %d: %s", target, rr.Code, rr.Body.String())
		}
		if rr := doJSON(t, h, http.MethodGet, target, nil, alice); rr.Code != http.StatusOK {
			t.Fatalf("%s as owner: expected 200, got %d: %s", target, rr.Code, rr.Body.String())
		}
	}

	decodeBody(t, doJSON(t, h, http.MethodGet, "/api/quotes", nil, alice), &list)
	if len(list.Quotes) != 1 || list.Quotes[0].ID != saved.ID {
		t.Fatalf("expected owner to see quote %d, got %+v", saved.ID, list.Quotes)
	}
}

func TestHandleEstimateValidationIs422(t *testing.T) {
	h := newTestServer(t).routes(5 * time.Second)

	body := jsonEstimate()
	body["sqft"] = 20
	rr := doJSON(t, h, http.MethodPost, "/api/estimate", body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"field":"sqft"`) {
		t.Fatalf("expected sqft field error, got %s", rr.Body.String())
	}

	form := url.Values{"sqft": {"abc"}, "region": {"metro"}}
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for form, got %d", rec.Code)
	}
}

func TestHandleEstimateConfigMismatchIs503(t *testing.T) {
	srv := newTestServer(t)
	delete(srv.pricing.Regions, pricing.RegionSuburban)
	h := srv.routes(5 * time.Second)

	rr := doJSON(t, h, http.MethodPost, "/api/estimate", jsonEstimate())
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	for _, expected := range []string{"try again later", "MISSING_CONFIG_ENTRY"} {
		if !strings.Contains(rr.Body.String(), expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, rr.Body.String())
		}
	}
}

func TestHandleEstimateRejectsMalformedJSON(t *testing.T) {
	h := newTestServer(t).routes(5 * time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{"sqft":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv.routes(5*time.Second), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), srv.pricing.Version) {
		t.Fatalf("expected pricing version in health body, got %s", rr.Body.String())
	}
}
