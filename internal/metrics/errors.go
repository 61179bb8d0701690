package metrics

import (
	"errors"
	"fmt"
)

// ErrEmptySeries is returned when a computation needs a reference
// observation and the series has none.
var ErrEmptySeries = errors.New("series has no observations")

// ErrInvalidArgument is returned for nonsensical parameters such as a
// non-positive lag.
var ErrInvalidArgument = errors.New("invalid argument")

// InsufficientData is returned when a series has fewer observations than a
// computation requires.
type InsufficientData struct {
	SeriesKey string
	Required  int
	Actual    int
	Reason    string
}

func (e *InsufficientData) Error() string {
	msg := fmt.Sprintf("insufficient data for %q: need %d observations, have %d", e.SeriesKey, e.Required, e.Actual)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Is lets errors.Is(err, ErrEmptySeries) match zero-length input.
func (e *InsufficientData) Is(target error) bool {
	return target == ErrEmptySeries && e.Actual == 0
}

func insufficient(key string, required, actual int) error {
	return &InsufficientData{SeriesKey: key, Required: required, Actual: actual}
}
