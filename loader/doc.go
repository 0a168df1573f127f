// Package loader fetches and deserializes the lookup artifacts exactly once
// per process.
//
// Three artifacts make up a load: the tabular dataset, the embedding array
// and (for the hnsw index kind) the fitted neighbour model. Missing local
// files are fetched concurrently, then each file is decoded by its format.
//
// The first load that completes or fails to deserialize is memoized. Later
// calls return the same *Artifacts (or the same unavailable error) without
// touching the network or the disk. Fetch failures are not memoized, so a
// later call retries the download. Reset clears the memo.
package loader
