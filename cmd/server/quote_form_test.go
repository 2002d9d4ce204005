package main

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Simplici0/buildquote/internal/apperr"
	"github.com/Simplici0/buildquote/internal/pricing"
)

func estimateForm() url.Values {
	form := url.Values{}
	form.Set("service", "stucco")
	form.Set("sqft", "1,200")
	form.Set("stories", "2")
	form.Set("prep", "heavy")
	form.Set("finish", "premium")
	form.Set("region", "coastal")
	form.Set("scaffolding", "standard")
	form.Set("rush", "on")
	form.Set("warranty", "1")
	form.Set("title", "  Smith residence ")
	return form
}

func TestParseEstimateForm_Success(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/estimate", nil)
	req.Form = estimateForm()

	got, err := parseEstimateForm(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Service != pricing.ServiceStucco || got.SquareFeet != 1200 || got.Stories != pricing.StoriesTwo {
		t.Fatalf("unexpected input: %+v", got.EstimateInput)
	}
	if got.AddOns.Scaffolding != pricing.ScaffoldingStandard || !got.AddOns.Rush || !got.AddOns.Warranty || got.AddOns.Cleanup {
		t.Fatalf("unexpected add-ons: %+v", got.AddOns)
	}
	if got.Title != "Smith residence" {
		t.Fatalf("title = %q, want trimmed", got.Title)
	}
}

func TestParseEstimateForm_Defaults(t *testing.T) {
	form := url.Values{}
	form.Set("sqft", "500")
	form.Set("region", "rural")
	form.Set("scaffolding", "none")
	req := httptest.NewRequest("POST", "/api/estimate", nil)
	req.Form = form

	got, err := parseEstimateForm(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := pricing.EstimateInput{
		Service:    pricing.ServiceResidentialPainting,
		SquareFeet: 500,
		Stories:    pricing.StoriesOne,
		Prep:       pricing.PrepNone,
		Finish:     pricing.FinishStandard,
		Region:     pricing.RegionRural,
	}
	if got.EstimateInput != want {
		t.Fatalf("input = %+v, want %+v", got.EstimateInput, want)
	}
}

func TestParseEstimateForm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"missing sqft", "sqft", "", "sqft"},
		{"non-numeric sqft", "sqft", "abc", "sqft"},
		{"nan sqft", "sqft", "NaN", "sqft"},
		{"sqft too small", "sqft", "99", "sqft"},
		{"sqft too large", "sqft", "50001", "sqft"},
		{"missing region", "region", "", "region"},
		{"unknown region", "region", "lunar", "region"},
		{"unknown finish", "finish", "gold", "finish"},
		{"unknown scaffolding", "scaffolding", "crane", "scaffolding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := estimateForm()
			form.Set(tt.field, tt.value)
			req := httptest.NewRequest("POST", "/api/estimate", nil)
			req.Form = form

			_, err := parseEstimateForm(req)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var e *apperr.Error
			if !errors.As(err, &e) || e.Field != tt.want {
				t.Fatalf("expected error on field %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseEstimateForm_BoundsInclusive(t *testing.T) {
	for _, sqft := range []string{"100", "50000"} {
		form := estimateForm()
		form.Set("sqft", sqft)
		req := httptest.NewRequest("POST", "/api/estimate", nil)
		req.Form = form
		if _, err := parseEstimateForm(req); err != nil {
			t.Fatalf("sqft=%s: unexpected err: %v", sqft, err)
		}
	}
}
