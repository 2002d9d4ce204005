package quotes

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// RenderText formats a quote as the plain-text summary sent to a customer.
func RenderText(q Quote) string {
	var b strings.Builder

	title := q.Title
	if title == "" {
		title = "Untitled quote"
	}
	fmt.Fprintf(&b, "Quote #%d: %s\n", q.ID, title)
	fmt.Fprintf(&b, "Date: %s\n", q.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Estimate: %s - %s %s\n", humanize.Comma(q.Min), humanize.Comma(q.Max), q.Currency)
	fmt.Fprintf(&b, "Pricing version: %s\n", q.ConfigVersion)

	in := q.Input
	b.WriteString("\nProject:\n")
	fmt.Fprintf(&b, "- Service: %s\n", words(string(in.Service)))
	fmt.Fprintf(&b, "- Area: %s sq ft\n", humanize.Comma(int64(math.Round(in.SquareFeet))))
	fmt.Fprintf(&b, "- Stories: %s\n", in.Stories)
	fmt.Fprintf(&b, "- Prep: %s\n", words(string(in.Prep)))
	fmt.Fprintf(&b, "- Finish: %s\n", in.Finish)
	fmt.Fprintf(&b, "- Region: %s\n", in.Region)
	if in.AddOns.Rush {
		b.WriteString("- Rush scheduling\n")
	}

	if items := q.Result.Breakdown.AddOns; len(items) > 0 {
		b.WriteString("\nAdd-ons:\n")
		for _, item := range items {
			fmt.Fprintf(&b, "- %s: %s - %s\n", words(item.Name), amount(item.Min), amount(item.Max))
		}
	}

	if q.Result.Breakdown.FloorApplied {
		fmt.Fprintf(&b, "\nMinimum job fee of %s %s applies.\n", amount(q.Result.Breakdown.MinimumJobFee), q.Currency)
	}

	if q.Result.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(q.Result.Explanation)
		b.WriteString("\n")
	}
	if q.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", q.Notes)
	}
	return b.String()
}

func words(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func amount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
