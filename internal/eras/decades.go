package eras

import (
	"fmt"
	"time"
)

// Bucket is a labelled, inclusive date window used for per-period aggregates.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Decades partitions the years from startYear through today's year into
// contiguous decade buckets. The first bucket begins on January 1 of
// startYear, so a start of 1971 yields "1970s" covering 1971-01-01..1979-12-31.
func Decades(startYear int, today time.Time) []Bucket {
	lastYear := today.Year()
	if startYear > lastYear {
		return nil
	}

	var out []Bucket
	for decade := startYear - startYear%10; decade <= lastYear; decade += 10 {
		from := decade
		if from < startYear {
			from = startYear
		}
		to := decade + 9
		if to > lastYear {
			to = lastYear
		}
		out = append(out, Bucket{
			Label: fmt.Sprintf("%ds", decade),
			Start: time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(to, time.December, 31, 0, 0, 0, 0, time.UTC),
		})
	}
	return out
}
