package materials

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Simplici0/buildquote/internal/apperr"
)

// BudgetTier names the cost index a homeowner considers ideal.
type BudgetTier string

const (
	BudgetEconomy  BudgetTier = "economy"
	BudgetStandard BudgetTier = "standard"
	BudgetPremium  BudgetTier = "premium"
)

var idealCostIndex = map[BudgetTier]int{
	"":             1,
	BudgetEconomy:  1,
	BudgetStandard: 3,
	BudgetPremium:  5,
}

// Criteria describes what the homeowner is looking for.
type Criteria struct {
	ProjectType    string     `json:"projectType"`
	Substrates     []string   `json:"substrate"`
	ClimateTags    []string   `json:"climateTags"`
	LongevityYears float64    `json:"longevity"`
	Budget         BudgetTier `json:"budgetTier"`
	Sustainability bool       `json:"sustainability"`
	Weights        Weights    `json:"weights"`
}

// SubScores are the per-dimension values in [0,1] before weighting.
type SubScores struct {
	Durability     float64 `json:"durability"`
	Cost           float64 `json:"cost"`
	Maintenance    float64 `json:"maintenance"`
	Climate        float64 `json:"climate"`
	Sustainability float64 `json:"sustainability"`
}

// Scored pairs a catalog entry with its score (0..100) and match reasons.
type Scored struct {
	Entry     Entry     `json:"material"`
	Score     float64   `json:"score"`
	SubScores SubScores `json:"subScores"`
	Reasons   []string  `json:"reasons"`
}

// reasonThreshold is the sub-score at which a dimension earns a match reason.
const reasonThreshold = 0.7

// Score ranks every active catalog entry that fits at least one of the
// requested substrates. Results are ordered by score descending, then id.
func Score(catalog []Entry, c Criteria) ([]Scored, error) {
	if !isFinite(c.LongevityYears) || c.LongevityYears <= 0 {
		return nil, apperr.Invariant(apperr.CodeOutOfRange, "target longevity must be positive, got %v", c.LongevityYears)
	}
	ideal, ok := idealCostIndex[c.Budget]
	if !ok {
		return nil, apperr.Invalid("budgetTier", apperr.CodeOutOfRange, "unknown budget tier %q", c.Budget)
	}
	w, err := c.Weights.Normalize(c.Sustainability)
	if err != nil {
		return nil, err
	}

	wanted := normalizedSet(c.Substrates)
	tags := normalizedList(c.ClimateTags)

	out := make([]Scored, 0, len(catalog))
	for _, e := range catalog {
		if !e.Active || !overlaps(wanted, e.Substrates) {
			continue
		}
		sub, err := subScores(e, c, ideal, tags)
		if err != nil {
			return nil, fmt.Errorf("score material %s: %w", e.ID, err)
		}
		total := w.Durability*sub.Durability +
			w.Cost*sub.Cost +
			w.Maintenance*sub.Maintenance +
			w.Climate*sub.Climate +
			w.Sustainability*sub.Sustainability
		score := clamp(math.Round(total*1000)/10, 0, 100)

		out = append(out, Scored{
			Entry:     e,
			Score:     score,
			SubScores: sub,
			Reasons:   reasons(e, c, sub, tags),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	return out, nil
}

// Shortlist returns the ids of the top n scored materials.
func Shortlist(scored []Scored, n int) []string {
	if n > len(scored) {
		n = len(scored)
	}
	if n < 0 {
		n = 0
	}
	ids := make([]string, 0, n)
	for _, s := range scored[:n] {
		ids = append(ids, s.Entry.ID)
	}
	return ids
}

func subScores(e Entry, c Criteria, ideal int, tags []string) (SubScores, error) {
	if e.CostIndex < 1 || e.CostIndex > 5 {
		return SubScores{}, apperr.Invariant(apperr.CodeOutOfRange, "cost index %d outside 1..5", e.CostIndex)
	}
	maint, ok := maintenanceScore(e.Maintenance)
	if !ok {
		return SubScores{}, apperr.Invariant(apperr.CodeOutOfRange, "unknown maintenance level %q", e.Maintenance)
	}

	var s SubScores
	s.Durability = clamp(math.Min(e.Durability/c.LongevityYears, 1), 0, 1)
	// Indices at or below the budget's ideal are free; each step above costs a quarter.
	s.Cost = clamp(1-float64(max(e.CostIndex-ideal, 0))/4, 0, 1)
	s.Maintenance = maint
	s.Climate = climateCoverage(e, tags)
	if c.Sustainability {
		s.Sustainability = clamp(e.RecycledPct/100, 0, 1)
	}
	return s, nil
}

// maintenanceScore maps upkeep to [0,1]: low 1, medium 0.5, high 0.
func maintenanceScore(l Level) (float64, bool) {
	switch l {
	case LevelLow:
		return 1, true
	case LevelMedium:
		return 0.5, true
	case LevelHigh:
		return 0, true
	default:
		return 0, false
	}
}

// climateResistance maps climate tags onto the resistance that answers them.
var climateResistance = map[string]func(Entry) Level{
	"uv":          func(e Entry) Level { return e.UVResistance },
	"sun":         func(e Entry) Level { return e.UVResistance },
	"hot_dry":     func(e Entry) Level { return e.UVResistance },
	"desert":      func(e Entry) Level { return e.UVResistance },
	"moisture":    func(e Entry) Level { return e.MoistureResistance },
	"humid":       func(e Entry) Level { return e.MoistureResistance },
	"rain":        func(e Entry) Level { return e.MoistureResistance },
	"wet":         func(e Entry) Level { return e.MoistureResistance },
	"freeze_thaw": func(e Entry) Level { return e.MoistureResistance },
	"coastal":     func(e Entry) Level { return e.SaltResistance },
	"salt":        func(e Entry) Level { return e.SaltResistance },
	"marine":      func(e Entry) Level { return e.SaltResistance },
}

// climateCoverage is the fraction of tags the entry answers, either through a
// medium-or-better resistance or a substrate of the same name.
func climateCoverage(e Entry, tags []string) float64 {
	if len(tags) == 0 {
		return 0
	}
	subs := normalizedSet(e.Substrates)
	covered := 0
	for _, t := range tags {
		if covers(e, t, subs) {
			covered++
		}
	}
	return float64(covered) / float64(len(tags))
}

func covers(e Entry, tag string, subs map[string]struct{}) bool {
	if res, ok := climateResistance[tag]; ok {
		l := res(e)
		return l == LevelMedium || l == LevelHigh
	}
	_, ok := subs[tag]
	return ok
}

func reasons(e Entry, c Criteria, s SubScores, tags []string) []string {
	out := make([]string, 0, 5)
	if s.Durability >= reasonThreshold {
		out = append(out, fmt.Sprintf("durability: %s-year rated against a %s-year target", trimNum(e.Durability), trimNum(c.LongevityYears)))
	}
	if s.Cost >= reasonThreshold {
		budget := c.Budget
		if budget == "" {
			budget = BudgetEconomy
		}
		out = append(out, fmt.Sprintf("cost: index %d of 5 suits a %s budget", e.CostIndex, budget))
	}
	if s.Maintenance >= reasonThreshold {
		out = append(out, fmt.Sprintf("maintenance: %s upkeep", e.Maintenance))
	}
	if s.Climate >= reasonThreshold {
		subs := normalizedSet(e.Substrates)
		var hit []string
		for _, t := range tags {
			if covers(e, t, subs) {
				hit = append(hit, strings.ReplaceAll(t, "_", "-"))
			}
		}
		out = append(out, "climate: rated for "+strings.Join(hit, ", "))
	}
	if s.Sustainability >= reasonThreshold {
		out = append(out, fmt.Sprintf("sustainability: %s%% recycled content", trimNum(e.RecycledPct)))
	}
	return out
}

func overlaps(wanted map[string]struct{}, substrates []string) bool {
	for _, s := range substrates {
		if _, ok := wanted[normalizeTag(s)]; ok {
			return true
		}
	}
	return false
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func normalizedList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		n := normalizeTag(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func normalizedSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range normalizedList(in) {
		out[s] = struct{}{}
	}
	return out
}

func trimNum(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
