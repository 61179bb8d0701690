package metrics

import (
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/pkg/models"
)

// bucketLag is the trailing change used per bucket; with monthly data it is
// a year-over-year rate.
const bucketLag = 12

// BucketResult is the aggregate for one bucket. When Insufficient is set the
// bucket had too few observations and Mean is a zero placeholder, not a
// measured zero.
type BucketResult struct {
	Label        string  `json:"label"`
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Insufficient bool    `json:"insufficient"`
}

// BucketByPeriod partitions s by the given inclusive date ranges and
// averages the trailing 12-period change inside each one. Results are in
// bucket order.
func BucketByPeriod(s models.Series, buckets []eras.Bucket) []BucketResult {
	out := make([]BucketResult, 0, len(buckets))
	for _, b := range buckets {
		slice := s.Slice(b.Start, b.End)
		res := BucketResult{Label: b.Label, Count: slice.Len()}

		if slice.Len() <= bucketLag {
			res.Insufficient = true
			out = append(out, res)
			continue
		}

		mean, err := MeanPeriodChange(slice, bucketLag)
		if err != nil {
			res.Insufficient = true
		} else {
			res.Mean = mean
		}
		out = append(out, res)
	}
	return out
}
