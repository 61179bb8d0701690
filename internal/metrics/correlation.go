package metrics

import (
	"encoding/json"
	"math"

	"github.com/seenimoa/fedlens/pkg/models"
)

// Pair identifies an ordered pair of series keys.
type Pair struct {
	A, B string
}

// Matrix holds pairwise correlations. Undefined pairs are NaN.
type Matrix struct {
	Keys   []string
	Values map[Pair]float64
}

// Get returns the correlation between a and b.
func (m Matrix) Get(a, b string) float64 {
	v, ok := m.Values[Pair{a, b}]
	if !ok {
		return math.NaN()
	}
	return v
}

// MarshalJSON renders the matrix as rows of nullable floats in key order.
func (m Matrix) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(m.Keys))
	for i, a := range m.Keys {
		rows[i] = make([]*float64, len(m.Keys))
		for j, b := range m.Keys {
			v := m.Get(a, b)
			if math.IsNaN(v) {
				continue
			}
			rows[i][j] = &v
		}
	}
	return json.Marshal(struct {
		Keys   []string     `json:"keys"`
		Matrix [][]*float64 `json:"matrix"`
	}{m.Keys, rows})
}

// CorrelationMatrix computes the Pearson correlation for every pair of
// columns, each pair using only the rows where both are defined.
func CorrelationMatrix(t models.JoinedTable) Matrix {
	m := Matrix{
		Keys:   append([]string(nil), t.Keys...),
		Values: make(map[Pair]float64, len(t.Keys)*len(t.Keys)),
	}
	for i, a := range t.Keys {
		for j := i; j < len(t.Keys); j++ {
			b := t.Keys[j]
			r := pairwise(t, a, b)
			m.Values[Pair{a, b}] = r
			m.Values[Pair{b, a}] = r
		}
	}
	return m
}

func pairwise(t models.JoinedTable, a, b string) float64 {
	var xs, ys []float64
	for _, row := range t.Rows {
		x, okA := row.Value(a)
		y, okB := row.Value(b)
		if okA && okB {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return pearson(xs, ys)
}

func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)

	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	r := cov / math.Sqrt(vx*vy)
	// Clamp rounding drift outside [-1, 1].
	return math.Max(-1, math.Min(1, r))
}
