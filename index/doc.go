// Package index provides the neighbour index interface and its two
// implementations.
//
//   - flat: Exact nearest neighbour search (brute force over the embedding table)
//   - hnsw: Approximate search over a pre-fitted, serialized HNSW graph
//
// # Index Selection
//
// The hnsw index is the "fitted model" artifact shipped next to the dataset.
// The flat index needs no model artifact; it is built from the embedding
// table at load time and gives exact results.
//
// # Index Interface
//
//	type Index interface {
//	    Dimension() int
//	    Len() int
//	    Search(ctx, query []float32, k int) ([]Neighbor, error)
//	}
//
// Results are ordered nearest first. Positions refer to rows of the
// dataset after reset-of-index.
package index
