package materials

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryPaint    Category = "paint"
	CategoryPrimer   Category = "primer"
	CategoryStucco   Category = "stucco"
	CategoryEIFS     Category = "eifs"
	CategorySiding   Category = "siding"
	CategorySealant  Category = "sealant"
	CategoryCoating  Category = "coating"
	CategoryMembrane Category = "membrane"
)

var Categories = []Category{
	CategoryPaint, CategoryPrimer, CategoryStucco, CategoryEIFS,
	CategorySiding, CategorySealant, CategoryCoating, CategoryMembrane,
}

// Level is an ordinal low/medium/high rating.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// Entry is one material in the catalog. The engine never mutates it.
type Entry struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Brand         string   `json:"brand" yaml:"brand"`
	Category      Category `json:"category" yaml:"category"`
	CostIndex     int      `json:"costIndex" yaml:"cost_index"`
	Durability    float64  `json:"durabilityYears" yaml:"durability_years"`
	RValue        float64  `json:"rValue" yaml:"r_value"`
	RecycledPct   float64  `json:"recycledContentPct" yaml:"recycled_content_pct"`
	WarrantyYears int      `json:"warrantyYears" yaml:"warranty_years"`

	Maintenance        Level `json:"maintenance" yaml:"maintenance"`
	UVResistance       Level `json:"uvResistance" yaml:"uv_resistance"`
	MoistureResistance Level `json:"moistureResistance" yaml:"moisture_resistance"`
	SaltResistance     Level `json:"saltResistance" yaml:"salt_resistance"`

	Substrates []string `json:"suitableSubstrates" yaml:"suitable_substrates"`
	Active     bool     `json:"isActive" yaml:"is_active"`
}
