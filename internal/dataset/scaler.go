package dataset

import (
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Scaler performs per-channel min-max normalization to [0, 1].
type Scaler struct {
	Min []float64 `json:"min" yaml:"min"`
	Max []float64 `json:"max" yaml:"max"`
}

// Fit learns the per-channel range of rows.
func Fit(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, errs.Invalid("cannot fit a scaler on no rows")
	}
	width := len(rows[0])
	s := &Scaler{Min: make([]float64, width), Max: make([]float64, width)}
	col := make([]float64, len(rows))
	for c := 0; c < width; c++ {
		for i, row := range rows {
			if len(row) != width {
				return nil, errs.Shape("row width", width, len(row))
			}
			col[i] = row[c]
		}
		s.Min[c] = floats.Min(col)
		s.Max[c] = floats.Max(col)
	}
	return s, nil
}

// Transform returns a normalized copy of rows. Constant channels map to 0.
func (s *Scaler) Transform(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(v, lo, span float64) float64 {
		if span == 0 {
			return 0
		}
		return (v - lo) / span
	})
}

// Inverse maps normalized rows back to the original range.
func (s *Scaler) Inverse(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(v, lo, span float64) float64 {
		return v*span + lo
	})
}

func (s *Scaler) apply(rows [][]float64, fn func(v, lo, span float64) float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Min) {
			return nil, errs.Shape("row width", len(s.Min), len(row))
		}
		r := make([]float64, len(row))
		for c, v := range row {
			r[c] = fn(v, s.Min[c], s.Max[c]-s.Min[c])
		}
		out[i] = r
	}
	return out, nil
}
