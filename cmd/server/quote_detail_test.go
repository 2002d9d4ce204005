package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/buildquote/internal/pricing"
)

const detailVisitor = "0b6f1c9e-5d1e-4f4a-9a57-3f1d2c7e8b10"

func seedQuoteDetail(t *testing.T, srv *server) int64 {
	t.Helper()

	in := pricing.EstimateInput{
		Service:    pricing.ServiceEIFS,
		SquareFeet: 2400,
		Stories:    pricing.StoriesOne,
		Prep:       pricing.PrepNone,
		Finish:     pricing.FinishStandard,
		Region:     pricing.RegionMetro,
		AddOns:     pricing.AddOns{Cleanup: true},
	}
	res, err := pricing.Estimate(in, srv.pricing)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	q, err := srv.quotes.Save(context.Background(), detailVisitor, "Warehouse", "dock side", in, res)
	if err != nil {
		t.Fatalf("save quote: %v", err)
	}
	return q.ID
}

func withID(req *http.Request, id string) *http.Request {
	return withVisitor(req, id, detailVisitor)
}

func withVisitor(req *http.Request, id, visitor string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, visitorKey{}, visitor)
	return req.WithContext(ctx)
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t)
	if id := seedQuoteDetail(t, srv); id != 1 {
		t.Fatalf("expected first quote id 1, got %d", id)
	}

	req := withID(httptest.NewRequest(http.MethodGet, "/api/quotes/1/text", nil), "1")

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Quote #1: Warehouse", "USD", "Project:", "- Service: eifs", "- site cleanup:", "Notes: dock side"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestHandleQuoteDetailSurvivesPricingChange(t *testing.T) {
	srv := newTestServer(t)
	seedQuoteDetail(t, srv)

	before := httptest.NewRecorder()
	srv.handleQuoteDetail(before, withID(httptest.NewRequest(http.MethodGet, "/api/quotes/1", nil), "1"))
	if before.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", before.Code)
	}

	srv.pricing.BasePerArea[pricing.ServiceEIFS] = pricing.Range{Min: 1000, Max: 2000}
	after := httptest.NewRecorder()
	srv.handleQuoteDetail(after, withID(httptest.NewRequest(http.MethodGet, "/api/quotes/1", nil), "1"))

	if before.Body.String() != after.Body.String() {
		t.Fatalf("stored quote changed after a pricing update:\n%s\n%s", before.Body.String(), after.Body.String())
	}
}

func TestHandleQuoteDetailErrors(t *testing.T) {
	srv := newTestServer(t)

	cases := map[string]int{
		"abc": http.StatusBadRequest,
		"0":   http.StatusBadRequest,
		"99":  http.StatusNotFound,
	}
	for id, status := range cases {
		rr := httptest.NewRecorder()
		srv.handleQuoteDetail(rr, withID(httptest.NewRequest(http.MethodGet, "/api/quotes/"+id, nil), id))
		if rr.Code != status {
			t.Fatalf("id %s: expected status %d, got %d", id, status, rr.Code)
		}
	}
}

func TestHandleQuoteTextHidesOtherVisitorsQuotes(t *testing.T) {
	srv := newTestServer(t)
	id := seedQuoteDetail(t, srv)

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, withVisitor(httptest.NewRequest(http.MethodGet, "/api/quotes/1/text", nil), fmt.Sprint(id), "someone-else"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "dock side") {
		t.Fatalf("notes leaked to another visitor: %s", rr.Body.String())
	}
}
