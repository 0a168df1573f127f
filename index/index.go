package index

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned for zero-length vectors.
	ErrEmptyVector = errors.New("vector is empty")
)

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Kind names an index implementation.
type Kind string

const (
	KindFlat Kind = "flat"
	KindHNSW Kind = "hnsw"
)

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFlat, KindHNSW:
		return Kind(s), nil
	case "":
		return KindHNSW, nil
	default:
		return "", fmt.Errorf("unsupported index kind: %q", s)
	}
}

// Neighbor is a single search hit.
type Neighbor struct {
	// Position is the row position of the hit in the dataset.
	Position int

	// Distance is the distance between the query vector and the hit.
	Distance float32
}

// Index is a read-only k-nearest-neighbours structure.
type Index interface {
	// Dimension returns the vector dimensionality of the index.
	Dimension() int

	// Len returns the number of indexed vectors.
	Len() int

	// Search returns up to k neighbours of q, nearest first.
	Search(ctx context.Context, q []float32, k int) ([]Neighbor, error)
}

// ValidateQuery checks the arguments shared by all Search implementations.
func ValidateQuery(dim int, q []float32, k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	if len(q) == 0 {
		return ErrEmptyVector
	}
	if dim > 0 && len(q) != dim {
		return &ErrDimensionMismatch{Expected: dim, Actual: len(q)}
	}
	return nil
}
