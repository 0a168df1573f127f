// Package distance provides the vector distance functions used by the
// neighbour indexes.
//
// # Supported Metrics
//
//   - MetricEuclidean: Euclidean (L2) distance, the default of the fitted models
//   - MetricSquaredL2: Squared Euclidean distance, used for ranking only
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//
// # Usage
//
//	d := distance.Euclidean(a, b)
//	fn, _ := distance.Provider(distance.MetricEuclidean)
package distance
