package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buildquote/internal/apperr"
)

// LineItem is one flat add-on contribution.
type LineItem struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Breakdown records every intermediate value of an estimate, in application order.
type Breakdown struct {
	BaseMin float64 `json:"baseMin"`
	BaseMax float64 `json:"baseMax"`

	PrepMultiplier    float64 `json:"prepMultiplier"`
	FinishMultiplier  float64 `json:"finishMultiplier"`
	StoriesMultiplier float64 `json:"storiesMultiplier"`
	AdjustedMin       float64 `json:"adjustedMin"`
	AdjustedMax       float64 `json:"adjustedMax"`

	RushMinFactor float64 `json:"rushMinFactor"`
	RushMaxFactor float64 `json:"rushMaxFactor"`
	LaborMin      float64 `json:"laborMin"`
	LaborMax      float64 `json:"laborMax"`

	AddOns    []LineItem `json:"addOns"`
	AddOnsMin float64    `json:"addOnsMin"`
	AddOnsMax float64    `json:"addOnsMax"`

	SubtotalMin      float64 `json:"subtotalMin"`
	SubtotalMax      float64 `json:"subtotalMax"`
	RegionMultiplier float64 `json:"regionMultiplier"`
	RegionalMin      float64 `json:"regionalMin"`
	RegionalMax      float64 `json:"regionalMax"`

	MinimumJobFee float64 `json:"minimumJobFee"`
	FloorApplied  bool    `json:"floorApplied"`
}

// Result is the customer-facing estimate.
type Result struct {
	Min           int64     `json:"min"`
	Max           int64     `json:"max"`
	Currency      string    `json:"currency"`
	ConfigVersion string    `json:"configVersion"`
	Breakdown     Breakdown `json:"breakdown"`
	Explanation   string    `json:"explanation"`
}

// Estimate prices a project against cfg. It is pure: the same input and
// configuration always produce the same Result.
func Estimate(in EstimateInput, cfg Configuration) (Result, error) {
	if !isFinite(in.SquareFeet) || in.SquareFeet <= 0 {
		return Result{}, apperr.Invariant(apperr.CodeNonFinite, "square footage must be a positive number, got %v", in.SquareFeet)
	}

	base, ok := cfg.BasePerArea[in.Service]
	if !ok {
		return Result{}, apperr.MissingConfig("base_per_area", string(in.Service))
	}
	prep, ok := cfg.Prep[in.Prep]
	if !ok {
		return Result{}, apperr.MissingConfig("prep_multipliers", string(in.Prep))
	}
	finish, ok := cfg.Finish[in.Finish]
	if !ok {
		return Result{}, apperr.MissingConfig("finish_multipliers", string(in.Finish))
	}
	stories, ok := cfg.Stories[in.Stories]
	if !ok {
		return Result{}, apperr.MissingConfig("stories_multipliers", string(in.Stories))
	}
	region, ok := cfg.Regions[in.Region]
	if !ok {
		return Result{}, apperr.MissingConfig("region_multipliers", string(in.Region))
	}
	addOns, err := flatAddOns(in.AddOns, cfg.AddOns)
	if err != nil {
		return Result{}, err
	}

	b := Breakdown{
		BaseMin:           base.Min * in.SquareFeet,
		BaseMax:           base.Max * in.SquareFeet,
		PrepMultiplier:    prep,
		FinishMultiplier:  finish,
		StoriesMultiplier: stories,
		RushMinFactor:     1,
		RushMaxFactor:     1,
		AddOns:            addOns,
		RegionMultiplier:  region,
		MinimumJobFee:     cfg.MinimumJobFee,
	}

	factor := prep * finish * stories
	b.AdjustedMin = b.BaseMin * factor
	b.AdjustedMax = b.BaseMax * factor

	// Rush scales labor only, so it runs before one-time add-ons join the total.
	if in.AddOns.Rush {
		if cfg.AddOns.Rush.Min <= 0 || cfg.AddOns.Rush.Max <= 0 {
			return Result{}, apperr.MissingConfig("add_ons.rush", "rush")
		}
		b.RushMinFactor = cfg.AddOns.Rush.Min
		b.RushMaxFactor = cfg.AddOns.Rush.Max
	}
	b.LaborMin = b.AdjustedMin * b.RushMinFactor
	b.LaborMax = b.AdjustedMax * b.RushMaxFactor

	for _, item := range addOns {
		b.AddOnsMin += item.Min
		b.AddOnsMax += item.Max
	}
	b.SubtotalMin = b.LaborMin + b.AddOnsMin
	b.SubtotalMax = b.LaborMax + b.AddOnsMax

	b.RegionalMin = b.SubtotalMin * region
	b.RegionalMax = b.SubtotalMax * region

	finalMin, finalMax := b.RegionalMin, b.RegionalMax
	if finalMin < cfg.MinimumJobFee {
		finalMin = cfg.MinimumJobFee
		b.FloorApplied = true
	}
	if finalMax < cfg.MinimumJobFee {
		finalMax = cfg.MinimumJobFee
		b.FloorApplied = true
	}

	if !isFinite(finalMin) || !isFinite(finalMax) {
		return Result{}, apperr.Invariant(apperr.CodeNonFinite, "estimate produced a non-finite total")
	}

	res := Result{
		Min:           roundCurrency(finalMin),
		Max:           roundCurrency(finalMax),
		Currency:      cfg.Currency,
		ConfigVersion: cfg.Version,
		Breakdown:     b,
		Explanation:   explain(in),
	}
	if res.Min > res.Max {
		return Result{}, apperr.Invariant(apperr.CodeRangeInverted, "estimate min %d exceeds max %d", res.Min, res.Max)
	}
	return res, nil
}

// flatAddOns returns the selected one-time add-ons in a fixed order.
func flatAddOns(sel AddOns, costs AddOnCosts) ([]LineItem, error) {
	items := make([]LineItem, 0, 4)
	if sel.Scaffolding != ScaffoldingNone {
		r, ok := costs.Scaffolding[sel.Scaffolding]
		if !ok {
			return nil, apperr.MissingConfig("add_ons.scaffolding", string(sel.Scaffolding))
		}
		items = append(items, LineItem{Name: "scaffolding_" + string(sel.Scaffolding), Min: r.Min, Max: r.Max})
	}
	if sel.ColorConsultation && !costs.ColorConsultationBundled {
		items = append(items, LineItem{Name: "color_consultation", Min: costs.ColorConsultation.Min, Max: costs.ColorConsultation.Max})
	}
	if sel.Warranty {
		items = append(items, LineItem{Name: "warranty_extension", Min: costs.Warranty.Min, Max: costs.Warranty.Max})
	}
	if sel.Cleanup {
		items = append(items, LineItem{Name: "site_cleanup", Min: costs.Cleanup.Min, Max: costs.Cleanup.Max})
	}
	return items, nil
}

func roundCurrency(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
