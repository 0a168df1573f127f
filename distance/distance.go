package distance

import (
	"fmt"
	"math"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2(a, b))))
}

// Cosine calculates the cosine distance (1 - cosine similarity).
// Zero vectors have distance 1.
func Cosine(a, b []float32) float32 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - Dot(a, b)/float32(math.Sqrt(float64(na)*float64(nb)))
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricSquaredL2
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric maps a configuration name to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "euclidean", "l2":
		return MetricEuclidean, nil
	case "sqeuclidean", "squared_l2":
		return MetricSquaredL2, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unsupported metric: %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
