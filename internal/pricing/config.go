package pricing

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/buildquote/internal/apperr"
)

//go:embed default_pricing.yaml
var defaultConfigYAML []byte

// Range is an inclusive [Min, Max] pair.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// AddOnCosts holds flat add-on amounts and the rush factor pair.
type AddOnCosts struct {
	Scaffolding              map[ScaffoldingTier]Range `yaml:"scaffolding"`
	ColorConsultation        Range                     `yaml:"color_consultation"`
	ColorConsultationBundled bool                      `yaml:"color_consultation_bundled"`
	Warranty                 Range                     `yaml:"warranty"`
	Cleanup                  Range                     `yaml:"cleanup"`
	// Rush is a pair of multipliers, not a flat amount.
	Rush Range `yaml:"rush"`
}

// Configuration is the versioned price table the estimator reads.
// It is never mutated after loading.
type Configuration struct {
	Version       string                     `yaml:"version"`
	Currency      string                     `yaml:"currency"`
	MinimumJobFee float64                    `yaml:"minimum_job_fee"`
	BasePerArea   map[ServiceKind]Range      `yaml:"base_per_area"`
	Prep          map[PrepComplexity]float64 `yaml:"prep_multipliers"`
	Finish        map[FinishQuality]float64  `yaml:"finish_multipliers"`
	Stories       map[Stories]float64        `yaml:"stories_multipliers"`
	Regions       map[Region]float64         `yaml:"region_multipliers"`
	AddOns        AddOnCosts                 `yaml:"add_ons"`
}

// ParseConfiguration decodes and validates a YAML price table.
func ParseConfiguration(data []byte) (Configuration, error) {
	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode pricing configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// LoadConfigurationFile reads a YAML price table from disk.
func LoadConfigurationFile(path string) (Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("read pricing configuration: %w", err)
	}
	return ParseConfiguration(b)
}

// DefaultConfiguration returns the price table shipped with the binary.
func DefaultConfiguration() (Configuration, error) {
	return ParseConfiguration(defaultConfigYAML)
}

// Validate checks that every enumeration value has an entry and every number is usable.
func (c Configuration) Validate() error {
	if c.Version == "" {
		return configErr("version is required")
	}
	if c.Currency == "" {
		return configErr("currency is required")
	}
	if err := checkAmount("minimum_job_fee", c.MinimumJobFee); err != nil {
		return err
	}

	for _, s := range Services {
		r, ok := c.BasePerArea[s]
		if !ok {
			return apperr.MissingConfig("base_per_area", string(s))
		}
		if err := checkRange("base_per_area."+string(s), r); err != nil {
			return err
		}
	}
	if err := checkMultipliers("prep_multipliers", PrepLevels, c.Prep); err != nil {
		return err
	}
	if err := checkMultipliers("finish_multipliers", FinishLevels, c.Finish); err != nil {
		return err
	}
	if err := checkMultipliers("stories_multipliers", StoryBands, c.Stories); err != nil {
		return err
	}
	if err := checkMultipliers("region_multipliers", Regions, c.Regions); err != nil {
		return err
	}

	for _, tier := range ScaffoldingTiers {
		r, ok := c.AddOns.Scaffolding[tier]
		if !ok {
			return apperr.MissingConfig("add_ons.scaffolding", string(tier))
		}
		if err := checkRange("add_ons.scaffolding."+string(tier), r); err != nil {
			return err
		}
	}
	for name, r := range map[string]Range{
		"add_ons.color_consultation": c.AddOns.ColorConsultation,
		"add_ons.warranty":           c.AddOns.Warranty,
		"add_ons.cleanup":            c.AddOns.Cleanup,
	} {
		if err := checkRange(name, r); err != nil {
			return err
		}
	}
	if err := checkRange("add_ons.rush", c.AddOns.Rush); err != nil {
		return err
	}
	if c.AddOns.Rush.Min <= 0 {
		return configErr("add_ons.rush factors must be positive")
	}
	return nil
}

func checkMultipliers[K ~string](table string, keys []K, m map[K]float64) error {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			return apperr.MissingConfig(table, string(k))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return configErr("%s.%s must be a positive multiplier", table, k)
		}
	}
	return nil
}

func checkRange(name string, r Range) error {
	if err := checkAmount(name+".min", r.Min); err != nil {
		return err
	}
	if err := checkAmount(name+".max", r.Max); err != nil {
		return err
	}
	if r.Min > r.Max {
		return configErr("%s: min %.2f exceeds max %.2f", name, r.Min, r.Max)
	}
	return nil
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return configErr("%s must be a non-negative number", name)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return apperr.New(apperr.KindConfigMismatch, apperr.CodeInvalidConfig, format, args...)
}
