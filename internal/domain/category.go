package domain

import (
	"fmt"
	"slices"
)

type Category string

const (
	LinePlot    Category = "Line Plot"
	BarPlot     Category = "Bar Plot"
	PieChart    Category = "Pie Chart"
	ScatterPlot Category = "Scatter Plot"
	Histogram   Category = "Histogram"
	BoxPlot     Category = "Box Plot"
	Heatmap     Category = "Heatmap"
	AreaPlot    Category = "Area Plot"
	Treemap     Category = "Treemap"
	OtherCharts Category = "Other Charts"
)

// KnownCategories lists the chart types the classifier is asked to choose from.
var KnownCategories = []Category{
	LinePlot, BarPlot, PieChart, ScatterPlot, Histogram, BoxPlot, Heatmap, AreaPlot, Treemap,
}

// Known reports whether c is one of the named chart types. OtherCharts is not.
func (c Category) Known() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// RuleCatalog maps a chart category to the rule text used to critique it.
type RuleCatalog map[Category]string

// Lookup matches label exactly, without any normalization, and falls back to
// the OtherCharts entry. The returned category is the key that matched.
func (c RuleCatalog) Lookup(label string) (Category, string, error) {
	if text, ok := c[Category(label)]; ok {
		return Category(label), text, nil
	}

	if text, ok := c[OtherCharts]; ok {
		return OtherCharts, text, nil
	}

	return "", "", fmt.Errorf("no rules for %q and no %q fallback: %w", label, OtherCharts, ErrCatalogUnavailable)
}

// Missing returns the known categories that have no entry of their own.
func (c RuleCatalog) Missing() []Category {
	var missing []Category
	for _, k := range KnownCategories {
		if _, ok := c[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Unreachable returns the entries, sorted, that are neither a named chart type
// nor OtherCharts. The classifier never reports them, so they are never used.
func (c RuleCatalog) Unreachable() []Category {
	var extra []Category
	for k := range c {
		if !k.Known() && k != OtherCharts {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return extra
}
