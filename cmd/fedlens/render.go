package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/seenimoa/fedlens/internal/config"
	"github.com/seenimoa/fedlens/internal/dashboard"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/pkg/models"
)

const rule = "═══════════════════════════════════════"

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// formatValue renders a figure with thousands separators and two decimals.
func formatValue(v float64, unit string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	num := humanize.CommafWithDigits(v, 2)
	switch unit {
	case dashboard.UnitPercent:
		return num + "%"
	case dashboard.UnitUSD:
		if v < 0 {
			return "-$" + humanize.CommafWithDigits(-v, 2)
		}
		return "$" + num
	default:
		return num
	}
}

func formatRange(r eras.Range) string {
	start, end := "earliest", "latest"
	if !r.Start.IsZero() {
		start = models.FormatDate(r.Start)
	}
	if !r.End.IsZero() {
		end = models.FormatDate(r.End)
	}
	return start + " to " + end
}

func printStatus(w io.Writer, cfg *config.Config, version, commit string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  fedlens: System Status")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Version:       %s (%s)\n", version, commit)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Configuration:")
	fmt.Fprintf(w, "    FRED Base URL: %s\n", cfg.FRED.BaseURL)
	fmt.Fprintf(w, "    Rate Limit:    %d requests/minute\n", cfg.FRED.RequestsPerMinute)
	fmt.Fprintf(w, "    Cache TTL:     %s\n", cfg.Cache.TTL())
	fmt.Fprintf(w, "    Concurrency:   %d\n", cfg.Fetch.Concurrency)
	fmt.Fprintf(w, "    API Server:    %s\n", cfg.API.Addr())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  API Keys:")
	for _, k := range config.CheckAPIKeys(cfg) {
		status := "not set"
		if k.IsSet {
			status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			if k.EnvVar != "" {
				status = fmt.Sprintf("set (%s %s: %s)", k.Source, k.EnvVar, k.Masked)
			}
		}
		fmt.Fprintf(w, "    %-25s %s\n", k.Name+":", status)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "\n  Problem: %v\n", err)
	}
	fmt.Fprintln(w, rule)
}

func printPeriods(w io.Writer, today time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range eras.Periods() {
		fmt.Fprintf(tw, "%s\t%s\n", p, formatRange(eras.ResolveRange(p, today)))
	}
	tw.Flush()
}

// printSeries prints a summary of s followed by its last tail observations.
func printSeries(w io.Writer, s models.Series, rng eras.Range, tail int) {
	fmt.Fprintf(w, "%s (%s)\n", s.Label, s.Key)
	fmt.Fprintf(w, "  Range:        %s\n", formatRange(rng))
	fmt.Fprintf(w, "  Observations: %s\n", humanize.Comma(int64(s.Len())))
	if s.IsEmpty() {
		return
	}
	first, _ := s.First()
	last, _ := s.Last()
	fmt.Fprintf(w, "  First:        %s  %s\n", models.FormatDate(first.Date), formatValue(first.Value, dashboard.UnitLevel))
	fmt.Fprintf(w, "  Latest:       %s  %s\n", models.FormatDate(last.Date), formatValue(last.Value, dashboard.UnitLevel))

	if tail <= 0 {
		return
	}
	obs := s.Observations
	if len(obs) > tail {
		obs = obs[len(obs)-tail:]
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, o := range obs {
		fmt.Fprintf(tw, "  %s\t%s\t\n", models.FormatDate(o.Date), formatValue(o.Value, dashboard.UnitLevel))
	}
	tw.Flush()
}

func printNotices(w io.Writer, notices []models.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
}

func printReport(w io.Writer, rep *dashboard.Report) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", rep.Title)
	fmt.Fprintf(w, "  %s: %s\n", rep.Period, formatRange(rep.Range))
	fmt.Fprintln(w, rule)

	if len(rep.Figures) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, f := range rep.Figures {
			asOf := ""
			if f.AsOf != "" {
				asOf = "as of " + f.AsOf
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Label, formatValue(f.Value, f.Unit), asOf)
		}
		tw.Flush()
	}

	if len(rep.Eras) > 0 {
		fmt.Fprintln(w)
		for _, e := range rep.Eras {
			fmt.Fprintf(w, "  %s (%s)\n", e.Name, formatRange(e.Range))
			fmt.Fprintf(w, "    Backing: %s, System: %s\n", e.CurrencyBacking, e.MonetarySystem)
			fmt.Fprintf(w, "    Avg inflation: %s  GDP growth: %s", optional(e.AvgInflation), optional(e.GDPGrowth))
			if e.PurchasingPowerLost != nil {
				fmt.Fprintf(w, "  Purchasing power lost: %s", optional(e.PurchasingPowerLost))
			}
			fmt.Fprintln(w)
		}
	}

	if len(rep.Buckets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Average inflation by decade:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, b := range rep.Buckets {
			val := formatValue(b.Mean*100, dashboard.UnitPercent)
			if b.Insufficient {
				val += " (insufficient data)"
			}
			fmt.Fprintf(tw, "    %s\t%s\n", b.Label, val)
		}
		tw.Flush()
	}

	if rep.Correlation != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Correlation:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "    \t%s\t\n", strings.Join(rep.Correlation.Keys, "\t"))
		for _, a := range rep.Correlation.Keys {
			cells := make([]string, 0, len(rep.Correlation.Keys))
			for _, b := range rep.Correlation.Keys {
				v := rep.Correlation.Get(a, b)
				if math.IsNaN(v) {
					cells = append(cells, "n/a")
					continue
				}
				cells = append(cells, fmt.Sprintf("%.2f", v))
			}
			fmt.Fprintf(tw, "    %s\t%s\t\n", a, strings.Join(cells, "\t"))
		}
		tw.Flush()
	}

	if len(rep.Notices) > 0 {
		fmt.Fprintln(w)
		printNotices(w, rep.Notices)
	}
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatValue(*v, dashboard.UnitPercent)
}
