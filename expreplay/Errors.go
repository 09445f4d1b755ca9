package expreplay

import (
	"errors"
	"fmt"
)

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errInsufficientSamples = errors.New("batch size exceeds buffer length")

var errInvalidBatch = errors.New("batch size must be positive")

var errFeatureSize = errors.New("invalid feature size")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer.
//
// A buffer has too few samples if the requested batch size is larger
// than the number of transitions currently stored.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, errInsufficientSamples)
}

// IsInvalidBatch returns whether or not an error reports that a
// non-positive batch size was requested.
func IsInvalidBatch(err error) bool {
	return errors.Is(err, errInvalidBatch)
}

// IsFeatureSize returns whether or not an error reports that a
// transition's state vectors did not match the buffer's feature size.
func IsFeatureSize(err error) bool {
	return errors.Is(err, errFeatureSize)
}

func featureSizeError(op string, want, have int) error {
	return &ExpReplayError{
		Op:  op,
		Err: fmt.Errorf("%w\n\twant(%v)\n\thave(%v)", errFeatureSize, want, have),
	}
}
