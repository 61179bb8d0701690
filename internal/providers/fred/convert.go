package fred

import (
	"fmt"
	"math"
	"strconv"

	"github.com/seenimoa/fedlens/internal/provider"
	"github.com/seenimoa/fedlens/pkg/models"
)

// MissingValue is FRED's sentinel for an observation with no value.
const MissingValue = "."

// ToSeries converts raw FRED records into a Series. Sentinel records are
// dropped; any other record that does not parse fails the whole conversion.
func ToSeries(key, label string, raw []provider.RawObservation) (models.Series, error) {
	obs := make([]models.Observation, 0, len(raw))
	for i, r := range raw {
		if r.Value == MissingValue {
			continue
		}
		date, err := parseFredDate(r.Date)
		if err != nil {
			return models.Series{}, fmt.Errorf("%w: record %d of %s: %v", ErrMalformedResponse, i, key, err)
		}
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			return models.Series{}, fmt.Errorf("%w: record %d of %s: value %q", ErrMalformedResponse, i, key, r.Value)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Series{}, fmt.Errorf("%w: record %d of %s: non-finite value %q", ErrMalformedResponse, i, key, r.Value)
		}
		obs = append(obs, models.Observation{Date: date, Value: v})
	}
	return models.NewSeries(key, label, obs), nil
}
