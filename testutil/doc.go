// Package testutil provides testing utilities for neighbour.
//
// This package is intended for use in tests only. It generates synthetic
// artifacts (dataset, embedding array, fitted model) in the exact on-disk
// formats the loader consumes, and serves them over HTTP with per-file
// request counters.
//
// # Random Vectors
//
//	rng := testutil.NewRNG(seed)
//	vectors := rng.UniformVectors(100, 8)
//
// # Artifacts
//
//	fx := testutil.Fixture{Horses: horses, Vectors: vectors}
//	paths, err := fx.WriteDir(dir)
//
// # Remote Host
//
//	srv := testutil.NewArtifactServer(files)
//	defer srv.Close()
//	srv.Hits("horse_embeddings.npy")
package testutil
