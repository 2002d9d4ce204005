package pricing

import (
	"math"

	"github.com/Simplici0/buildquote/internal/apperr"
)

// ServiceKind identifies the trade being quoted.
type ServiceKind string

const (
	ServiceResidentialPainting ServiceKind = "residential_painting"
	ServiceCommercialPainting  ServiceKind = "commercial_painting"
	ServiceStucco              ServiceKind = "stucco"
	ServiceEIFS                ServiceKind = "eifs"
)

// Services lists every ServiceKind a configuration must price.
var Services = []ServiceKind{
	ServiceResidentialPainting,
	ServiceCommercialPainting,
	ServiceStucco,
	ServiceEIFS,
}

// Stories is the building height band.
type Stories string

const (
	StoriesOne       Stories = "1"
	StoriesTwo       Stories = "2"
	StoriesThreePlus Stories = "3plus"
)

var StoryBands = []Stories{StoriesOne, StoriesTwo, StoriesThreePlus}

// PrepComplexity describes surface preparation before finish work.
type PrepComplexity string

const (
	PrepNone             PrepComplexity = "none"
	PrepStandard         PrepComplexity = "standard"
	PrepHeavy            PrepComplexity = "heavy"
	PrepStructuralRepair PrepComplexity = "structural_repair"
)

var PrepLevels = []PrepComplexity{PrepNone, PrepStandard, PrepHeavy, PrepStructuralRepair}

// FinishQuality is the product/finish tier. Standard is the baseline.
type FinishQuality string

const (
	FinishStandard FinishQuality = "standard"
	FinishPremium  FinishQuality = "premium"
	FinishLuxury   FinishQuality = "luxury"
)

var FinishLevels = []FinishQuality{FinishStandard, FinishPremium, FinishLuxury}

// Region is a named service zone with its own labor-cost multiplier.
type Region string

const (
	RegionMetro    Region = "metro"
	RegionSuburban Region = "suburban"
	RegionRural    Region = "rural"
	RegionCoastal  Region = "coastal"
	RegionMountain Region = "mountain"
)

var Regions = []Region{RegionMetro, RegionSuburban, RegionRural, RegionCoastal, RegionMountain}

// ScaffoldingTier selects a scaffolding package. The zero value means none.
type ScaffoldingTier string

const (
	ScaffoldingNone      ScaffoldingTier = ""
	ScaffoldingStandard  ScaffoldingTier = "standard"
	ScaffoldingExtended  ScaffoldingTier = "extended"
	ScaffoldingSpecialty ScaffoldingTier = "specialty"
)

var ScaffoldingTiers = []ScaffoldingTier{ScaffoldingStandard, ScaffoldingExtended, ScaffoldingSpecialty}

// AddOns are optional extras on top of the base job.
type AddOns struct {
	Scaffolding       ScaffoldingTier `json:"scaffolding,omitempty" yaml:"scaffolding"`
	ColorConsultation bool            `json:"colorConsultation" yaml:"color_consultation"`
	Rush              bool            `json:"rush" yaml:"rush"`
	Warranty          bool            `json:"warranty" yaml:"warranty"`
	Cleanup           bool            `json:"cleanup" yaml:"cleanup"`
}

// EstimateInput describes the homeowner's project.
type EstimateInput struct {
	Service    ServiceKind    `json:"service"`
	SquareFeet float64        `json:"sqft"`
	Stories    Stories        `json:"stories"`
	Prep       PrepComplexity `json:"prep"`
	Finish     FinishQuality  `json:"finish"`
	Region     Region         `json:"region"`
	AddOns     AddOns         `json:"addOns"`
}

const (
	MinSquareFeet = 100
	MaxSquareFeet = 50000
)

// ValidateInput applies the practical bounds the intake form enforces.
// Estimate itself only rejects values that would make the arithmetic meaningless.
func ValidateInput(in EstimateInput) error {
	if math.IsNaN(in.SquareFeet) || in.SquareFeet < MinSquareFeet || in.SquareFeet > MaxSquareFeet {
		return apperr.Invalid("sqft", apperr.CodeOutOfRange, "square footage must be between %d and %d", MinSquareFeet, MaxSquareFeet)
	}
	if !contains(Services, in.Service) {
		return apperr.Invalid("service", apperr.CodeOutOfRange, "unknown service %q", in.Service)
	}
	if !contains(StoryBands, in.Stories) {
		return apperr.Invalid("stories", apperr.CodeOutOfRange, "unknown stories %q", in.Stories)
	}
	if !contains(PrepLevels, in.Prep) {
		return apperr.Invalid("prep", apperr.CodeOutOfRange, "unknown prep complexity %q", in.Prep)
	}
	if !contains(FinishLevels, in.Finish) {
		return apperr.Invalid("finish", apperr.CodeOutOfRange, "unknown finish quality %q", in.Finish)
	}
	if !contains(Regions, in.Region) {
		return apperr.Invalid("region", apperr.CodeOutOfRange, "unknown region %q", in.Region)
	}
	if in.AddOns.Scaffolding != ScaffoldingNone && !contains(ScaffoldingTiers, in.AddOns.Scaffolding) {
		return apperr.Invalid("scaffolding", apperr.CodeOutOfRange, "unknown scaffolding tier %q", in.AddOns.Scaffolding)
	}
	return nil
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
