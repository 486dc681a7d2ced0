package clustering

import (
	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler rescales each column independently to [0, 1] using the
// minimum and maximum observed at Fit time. A constant column maps to 0.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

// Fit records per-column min and max over x.
func (s *MinMaxScaler) Fit(x [][]float64) error {
	dim, err := dimensions(x)
	if err != nil {
		return err
	}

	s.Min = make([]float64, dim)
	s.Max = make([]float64, dim)
	col := make([]float64, len(x))
	for j := 0; j < dim; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
	return nil
}

// Transform returns a scaled copy of x. Values outside the fitted range
// fall outside [0, 1].
func (s *MinMaxScaler) Transform(x [][]float64) ([][]float64, error) {
	dim, err := dimensions(x)
	if err != nil {
		return nil, err
	}
	if dim != len(s.Min) {
		return nil, ErrDimensionMismatch
	}

	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, dim)
		for j, v := range row {
			scaled[j] = (v - s.Min[j]) / s.scale(j)
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on x and returns the scaled copy.
func (s *MinMaxScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

func (s *MinMaxScaler) scale(j int) float64 {
	r := s.Max[j] - s.Min[j]
	if r == 0 {
		return 1
	}
	return r
}

// dimensions returns the shared row width of x.
func dimensions(x [][]float64) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	dim := len(x[0])
	if dim == 0 {
		return 0, ErrEmptyInput
	}
	for _, row := range x[1:] {
		if len(row) != dim {
			return 0, ErrDimensionMismatch
		}
	}
	return dim, nil
}
