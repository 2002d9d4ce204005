package materials

import (
	"math"

	"github.com/Simplici0/buildquote/internal/apperr"
)

// Weights sets the relative importance of each scoring dimension.
// Components are expected to be non-negative; the engine re-normalizes them.
type Weights struct {
	Durability     float64 `json:"durability"`
	Cost           float64 `json:"cost"`
	Maintenance    float64 `json:"maintenance"`
	Climate        float64 `json:"climate"`
	Sustainability float64 `json:"sustainability"`
}

// DefaultWeights returns the weighting the recommendation form starts from.
func DefaultWeights() Weights {
	return Weights{
		Durability:     0.30,
		Cost:           0.25,
		Maintenance:    0.20,
		Climate:        0.15,
		Sustainability: 0.10,
	}
}

// Sum returns the total of all components.
func (w Weights) Sum() float64 {
	return w.Durability + w.Cost + w.Maintenance + w.Climate + w.Sustainability
}

func (w Weights) asList() []float64 {
	return []float64{w.Durability, w.Cost, w.Maintenance, w.Climate, w.Sustainability}
}

// Normalize rescales w to sum to 1. When sustainability is not requested its
// weight is dropped first. An all-zero vector becomes uniform over the
// remaining dimensions. Negative or non-finite components are rejected.
func (w Weights) Normalize(sustainability bool) (Weights, error) {
	for _, v := range w.asList() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, apperr.Invariant(apperr.CodeNonFinite, "weights must be finite numbers")
		}
		if v < 0 {
			return Weights{}, apperr.Invariant(apperr.CodeNegativeWeights, "weights must be non-negative, got %v", v)
		}
	}
	if !sustainability {
		w.Sustainability = 0
	}

	sum := w.Sum()
	if sum == 0 {
		if sustainability {
			return Weights{0.2, 0.2, 0.2, 0.2, 0.2}, nil
		}
		return Weights{0.25, 0.25, 0.25, 0.25, 0}, nil
	}
	return Weights{
		Durability:     w.Durability / sum,
		Cost:           w.Cost / sum,
		Maintenance:    w.Maintenance / sum,
		Climate:        w.Climate / sum,
		Sustainability: w.Sustainability / sum,
	}, nil
}
