// Package flat provides an exact neighbour index built from the embedding
// table at load time.
package flat

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/neighbour/distance"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/internal/queue"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Metric selects the distance reported by Search.
	Metric distance.Metric
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Metric: distance.MetricEuclidean,
}

// Flat is an immutable brute-force index. Position i of the index is row i
// of the embedding table. Safe for concurrent use.
type Flat struct {
	dimension int
	vectors   [][]float32
	opts      Options
}

// New creates a flat index over vectors. All vectors must share the same
// non-zero dimension. The slice is retained, not copied.
func New(vectors [][]float32, optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := distance.Provider(opts.Metric); err != nil {
		return nil, err
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return nil, index.ErrEmptyVector
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("flat: vector %d: %w", i, &index.ErrDimensionMismatch{Expected: dim, Actual: len(v)})
		}
	}

	return &Flat{
		dimension: dim,
		vectors:   vectors,
		opts:      opts,
	}, nil
}

func (*Flat) Name() string { return "Flat" }

// Dimension returns the vector dimensionality.
func (f *Flat) Dimension() int { return f.dimension }

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Search scans every vector and keeps the k nearest in a bounded max heap.
// Ties on distance resolve to the lower position.
func (f *Flat) Search(ctx context.Context, q []float32, k int) ([]index.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := index.ValidateQuery(f.dimension, q, k); err != nil {
		return nil, err
	}
	if len(f.vectors) == 0 {
		return nil, nil
	}

	actualK := k
	if actualK > len(f.vectors) {
		actualK = len(f.vectors)
	}

	// Rank by squared L2 for the Euclidean metrics; the square root is only
	// taken for the survivors.
	rank := distance.SquaredL2
	if f.opts.Metric == distance.MetricCosine {
		rank = distance.Cosine
	}

	top := queue.NewMax(actualK)
	for pos, vec := range f.vectors {
		top.Offer(queue.Item{Position: pos, Distance: rank(q, vec)}, actualK)
	}

	items := top.Drain()
	results := make([]index.Neighbor, len(items))
	for i, item := range items {
		d := item.Distance
		if f.opts.Metric == distance.MetricEuclidean {
			d = float32(math.Sqrt(float64(d)))
		}
		results[i] = index.Neighbor{Position: item.Position, Distance: d}
	}
	return results, nil
}
