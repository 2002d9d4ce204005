package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

var storiesPhrase = map[Stories]string{
	StoriesTwo:       "two-story access",
	StoriesThreePlus: "three-plus-story access",
}

var prepPhrase = map[PrepComplexity]string{
	PrepStandard:         "standard surface prep",
	PrepHeavy:            "heavy surface prep",
	PrepStructuralRepair: "structural repair before finishing",
}

var finishPhrase = map[FinishQuality]string{
	FinishPremium: "premium finish",
	FinishLuxury:  "luxury finish",
}

// explain summarises the non-default cost drivers in input field order.
// The text is advisory only.
func explain(in EstimateInput) string {
	var drivers []string
	if p, ok := storiesPhrase[in.Stories]; ok {
		drivers = append(drivers, p)
	}
	if p, ok := prepPhrase[in.Prep]; ok {
		drivers = append(drivers, p)
	}
	if p, ok := finishPhrase[in.Finish]; ok {
		drivers = append(drivers, p)
	}

	scope := fmt.Sprintf("Estimate for %s sq ft of %s", formatArea(in.SquareFeet), strings.ReplaceAll(string(in.Service), "_", " "))
	if in.Region != "" {
		scope += " in the " + string(in.Region) + " zone"
	}

	var b strings.Builder
	b.WriteString(scope)
	if len(drivers) == 0 {
		b.WriteString(", standard scope with no additional cost drivers.")
	} else {
		b.WriteString(", priced up for ")
		b.WriteString(joinPhrases(drivers))
		b.WriteString(".")
	}
	if in.AddOns.Rush {
		b.WriteString(" Rush scheduling widens the labor range.")
	}
	return b.String()
}

func joinPhrases(p []string) string {
	switch len(p) {
	case 1:
		return p[0]
	case 2:
		return p[0] + " and " + p[1]
	default:
		return strings.Join(p[:len(p)-1], ", ") + " and " + p[len(p)-1]
	}
}

func formatArea(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
