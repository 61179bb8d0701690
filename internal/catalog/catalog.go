// Package catalog lists the FRED series the dashboard knows by name.
package catalog

import "sort"

// Category groups related series.
type Category string

const (
	Fiscal   Category = "fiscal"
	Monetary Category = "monetary"
	Rates    Category = "rates"
	Dollar   Category = "dollar"
	Economy  Category = "economy"
)

// Frequency is the number of observations per year.
type Frequency float64

const (
	Annual    Frequency = 1
	Quarterly Frequency = 4
	Monthly   Frequency = 12
	Daily     Frequency = 252 // business days
)

// Entry describes one known series.
type Entry struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Category  Category  `json:"category"`
	Frequency Frequency `json:"periods_per_year"`
}

var entries = []Entry{
	{"FGEXPND", "Federal Government Expenditures", Fiscal, Quarterly},
	{"FYFSD", "Federal Surplus/Deficit", Fiscal, Annual},
	{"FYGFDPUN", "Federal Debt Held by Public", Fiscal, Quarterly},
	{"A091RC1Q027SBEA", "Interest Payments on Federal Debt", Fiscal, Quarterly},

	{"M1SL", "M1 Money Stock", Monetary, Monthly},
	{"M2SL", "M2 Money Stock", Monetary, Monthly},
	{"BASE", "Monetary Base", Monetary, Monthly},
	{"CPIAUCSL", "Consumer Price Index", Monetary, Monthly},
	{"CPILFESL", "Core CPI", Monetary, Monthly},
	{"PCEPI", "PCE Price Index", Monetary, Monthly},
	{"FEDFUNDS", "Federal Funds Rate", Monetary, Monthly},

	{"DGS10", "10-Year Treasury Yield", Rates, Daily},
	{"T5YIE", "5-Year Breakeven Inflation", Rates, Daily},

	{"DTWEXBGS", "Broad Dollar Index", Dollar, Daily},
	{"NETEXP", "Net Exports", Dollar, Quarterly},

	{"GDP", "Gross Domestic Product", Economy, Quarterly},
	{"UNRATE", "Unemployment Rate", Economy, Monthly},
	{"MEHOINUSA672N", "Real Median Household Income", Economy, Annual},
}

var byKey = func() map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return m
}()

// All returns every known series in catalog order.
func All() []Entry {
	return append([]Entry(nil), entries...)
}

// Lookup returns the entry for key.
func Lookup(key string) (Entry, bool) {
	e, ok := byKey[key]
	return e, ok
}

// Label returns the display label for key, or the key itself when unknown.
func Label(key string) string {
	if e, ok := byKey[key]; ok {
		return e.Label
	}
	return key
}

// PeriodsPerYear returns the sampling frequency of key. Unknown series are
// assumed monthly.
func PeriodsPerYear(key string) float64 {
	if e, ok := byKey[key]; ok {
		return float64(e.Frequency)
	}
	return float64(Monthly)
}

// ByCategory groups the catalog, with keys sorted within each group.
func ByCategory() map[Category][]Entry {
	out := make(map[Category][]Entry)
	for _, e := range entries {
		out[e.Category] = append(out[e.Category], e)
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	}
	return out
}
