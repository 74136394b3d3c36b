package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/jointsync/internal/constraint"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

// RenderReport formats an initialization report for the terminal.
func RenderReport(r *constraint.Report) string {
	var b strings.Builder
	b.WriteString(Title.Render("JOINTS") + "\n")

	if r == nil {
		b.WriteString(Subtle.Render("  (not initialized)") + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%s%s\n", MetricLabel.Render("created"), MetricValue.Render(fmt.Sprint(len(r.Created))))
	fmt.Fprintf(&b, "%s%s\n", MetricLabel.Render("skipped"), MetricValue.Render(fmt.Sprint(len(r.Skipped))))
	fmt.Fprintf(&b, "%s%s\n", MetricLabel.Render("duplicates"), MetricValue.Render(fmt.Sprint(r.Duplicates())))

	if len(r.Created) > 0 {
		b.WriteString("\n")
		for _, c := range r.Created {
			mark := " "
			if c.Approximated {
				mark = "~"
			}
			fmt.Fprintf(&b, " %s %-10s %s\n", mark, c.Kind, pairLabel(c.BodyA, c.BodyB))
		}
	}

	if warnings := r.Warnings(); len(warnings) > 0 {
		b.WriteString("\n" + WarningText.Render("warnings") + "\n")
		for _, w := range warnings {
			b.WriteString(WarningText.Render("  ! "+w) + "\n")
		}
	}
	return b.String()
}

// RenderRecords lists registry records, one per line.
func RenderRecords(records []constraint.Record) string {
	if len(records) == 0 {
		return Subtle.Render("  (no joints)") + "\n"
	}
	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "  %-10s %s\n", rec.Kind, pairLabel(rec.BodyA, rec.BodyB))
	}
	return b.String()
}

// PlotSeparation charts each series of body separations, keyed by joint.
func PlotSeparation(series map[string][]float64, width, height int) string {
	keys := make([]string, 0, len(series))
	for k, v := range series {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return Subtle.Render("(no samples)")
	}
	sort.Strings(keys)

	data := make([][]float64, len(keys))
	colors := make([]asciigraph.AnsiColor, len(keys))
	for i, k := range keys {
		data[i] = series[k]
		colors[i] = seriesColors[i%len(seriesColors)]
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(keys...),
		asciigraph.Caption("separation"),
	)
}

func pairLabel(a, b string) string {
	return a + " ── " + b
}
