// Package eras maps the historical periods offered to users onto concrete
// observation date ranges.
package eras

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/fedlens/pkg/models"
)

// Period labels offered for selection.
const (
	PeriodLast50Years     = "Last 50 Years"
	PeriodLast20Years     = "Last 20 Years"
	PeriodSinceNixonShock = "Since Nixon Shock (1971)"
	PeriodSinceFed        = "Since Fed Creation (1913)"
	PeriodCustom          = "Custom Range"
)

var (
	// FedCreation is the date the Federal Reserve Act was signed.
	FedCreation = time.Date(1913, time.December, 23, 0, 0, 0, 0, time.UTC)
	// NixonShock is the date dollar convertibility into gold was suspended.
	NixonShock = time.Date(1971, time.August, 15, 0, 0, 0, 0, time.UTC)
)

var lastYearsRe = regexp.MustCompile(`(?i)^last\s+(\d+)\s+years?$`)

// Range is an inclusive observation window. A zero Start or End leaves that
// bound to the provider default.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) String() string {
	return models.FormatDate(r.Start) + ".." + models.FormatDate(r.End)
}

// Periods returns the selectable period labels in display order.
func Periods() []string {
	return []string{
		PeriodLast50Years,
		PeriodLast20Years,
		PeriodSinceNixonShock,
		PeriodSinceFed,
	}
}

// ResolveRange maps a period label to its date bounds relative to today.
// Unrecognised labels fall back to the Nixon shock.
func ResolveRange(label string, today time.Time) Range {
	end := models.Day(today)
	l := strings.ToLower(strings.TrimSpace(label))

	switch {
	case strings.HasPrefix(l, "since fed creation"):
		return Range{Start: FedCreation, End: end}
	case strings.HasPrefix(l, "since nixon shock"):
		return Range{Start: NixonShock, End: end}
	}

	if m := lastYearsRe.FindStringSubmatch(l); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return Range{Start: end.AddDate(0, 0, -n*365), End: end}
		}
	}

	return Range{Start: NixonShock, End: end}
}

// ParseRange builds a Range from optional YYYY-MM-DD strings.
func ParseRange(start, end string) (Range, error) {
	var r Range
	var err error
	if start != "" {
		if r.Start, err = models.ParseDate(start); err != nil {
			return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if r.End, err = models.ParseDate(end); err != nil {
			return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return Range{}, fmt.Errorf("end date %s precedes start date %s", end, start)
	}
	return r, nil
}

// GoldStandardEra spans the Fed's creation up to the Nixon shock.
func GoldStandardEra() Range {
	return Range{Start: FedCreation, End: NixonShock}
}

// FiatEra spans the Nixon shock to today.
func FiatEra(today time.Time) Range {
	return Range{Start: NixonShock, End: models.Day(today)}
}

// FullHistory spans the Fed's creation to today.
func FullHistory(today time.Time) Range {
	return Range{Start: FedCreation, End: models.Day(today)}
}
