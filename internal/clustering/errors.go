package clustering

import "errors"

var (
	// ErrEmptyInput is returned when there are no samples or no features.
	ErrEmptyInput = errors.New("clustering: empty input")

	// ErrDimensionMismatch is returned for ragged rows or a scaler fitted on a different width.
	ErrDimensionMismatch = errors.New("clustering: dimension mismatch")

	// ErrTooFewSamples is returned when there are fewer samples than clusters.
	ErrTooFewSamples = errors.New("clustering: fewer samples than clusters")

	// ErrInvalidK is returned when the cluster count is not positive.
	ErrInvalidK = errors.New("clustering: cluster count must be positive")
)
