// Package hnsw serves the pre-fitted neighbour model: an HNSW graph
// serialized with github.com/coder/hnsw, keyed by dataset row position.
package hnsw

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/hupe1980/neighbour/index"
)

// Compile-time check to ensure HNSW satisfies the index interface.
var _ index.Index = (*HNSW)(nil)

// ErrEmptyGraph is returned when a graph holds no nodes.
var ErrEmptyGraph = errors.New("hnsw: graph is empty")

// Options contains configuration options for the HNSW index.
type Options struct {
	// EfSearch is the size of the dynamic candidate list during search.
	// Zero keeps the value stored in the graph.
	EfSearch int

	// M is the maximum number of neighbours per node. Only used by Build.
	M int
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	EfSearch: 64,
	M:        16,
}

// HNSW wraps a coder/hnsw graph. The graph is never mutated after Load or
// Build; searches are still serialized against Export.
type HNSW struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[int]
	dimension int
}

// Load deserializes a graph written by Export (or by any producer of the
// coder/hnsw export format with int keys).
func Load(r io.Reader, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	// Import decodes varint keys and needs byte-wise reads.
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}

	g := hnsw.NewGraph[int]()
	if err := g.Import(r); err != nil {
		return nil, fmt.Errorf("hnsw: import graph: %w", err)
	}
	if opts.EfSearch > 0 {
		g.EfSearch = opts.EfSearch
	}

	return newIndex(g)
}

// Build fits a graph over vectors, keyed by slice position, with Euclidean
// distance.
func Build(vectors [][]float32, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(vectors) == 0 {
		return nil, ErrEmptyGraph
	}

	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.EuclideanDistance
	if opts.M > 0 {
		g.M = opts.M
	}
	if opts.EfSearch > 0 {
		g.EfSearch = opts.EfSearch
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, index.ErrEmptyVector
		}
		if len(v) != dim {
			return nil, fmt.Errorf("hnsw: vector %d: %w", i, &index.ErrDimensionMismatch{Expected: dim, Actual: len(v)})
		}
		vec := make([]float32, len(v))
		copy(vec, v)
		g.Add(hnsw.MakeNode(i, vec))
	}

	return newIndex(g)
}

func newIndex(g *hnsw.Graph[int]) (*HNSW, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	// Keys are row positions, so position 0 always exists in a valid model.
	v, ok := g.Lookup(0)
	if !ok {
		return nil, errors.New("hnsw: graph has no node for position 0")
	}
	return &HNSW{graph: g, dimension: len(v)}, nil
}

func (*HNSW) Name() string { return "HNSW" }

// Dimension returns the vector dimensionality.
func (h *HNSW) Dimension() int { return h.dimension }

// Len returns the number of nodes in the graph.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph.Len()
}

// Export writes the graph in the coder/hnsw export format.
func (h *HNSW) Export(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.graph.Export(w)
}

// Search returns up to k approximate neighbours of q, nearest first.
// Distances are recomputed with the graph's distance function; equal
// distances keep the order the graph returned them in.
func (h *HNSW) Search(ctx context.Context, q []float32, k int) ([]index.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := index.ValidateQuery(h.dimension, q, k); err != nil {
		return nil, err
	}

	h.mu.RLock()
	nodes := h.graph.Search(q, k)
	dist := h.graph.Distance
	h.mu.RUnlock()

	results := make([]index.Neighbor, 0, len(nodes))
	for _, n := range nodes {
		results = append(results, index.Neighbor{Position: n.Key, Distance: dist(q, n.Value)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
