// Package neighbour finds the horses most similar to a given horse.
//
// Three artifacts drive a lookup: a tabular dataset of horses, an embedding
// array with one vector per dataset row, and a fitted nearest-neighbour
// model over those vectors. They are fetched from remote storage on first
// use, deserialized once per process and kept in memory.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng := neighbour.Open(loader.Spec{
//	    DataDir:    "./data",
//	    Dataset:    loader.Artifact{URL: datasetURL, File: "data_with_attributes_reduced.csv.gz"},
//	    Embeddings: loader.Artifact{URL: embeddingsURL, File: "horse_embeddings.npy"},
//	    Model:      loader.Artifact{URL: modelURL, File: "nn_model.hnsw"},
//	})
//
//	res, err := eng.Search(ctx, "Frankel")
//	if err != nil {
//	    fmt.Println(neighbour.UserMessage(err))
//	    return
//	}
//	for _, m := range res.Matches {
//	    fmt.Println(m.Rank, m.Name, m.URL, m.Score)
//	}
//
// # Lookup
//
// A search resolves the name to the first record carrying it (exact,
// case-sensitive), resolves that record's horse_id to its embedding vector
// and asks the index for the k nearest vectors. The queried horse itself is
// normally the first match at distance 0.
//
// # Errors
//
//   - *NotFoundError: no record carries the name
//   - *EmbeddingNotFoundError: the record has no aligned vector
//   - *RemoteFetchError: an artifact download got a non-success status
//   - ErrUnavailable: an artifact failed to deserialize (memoized)
//
// UserMessage converts any of them to the text shown by the web form and
// the CLI.
package neighbour
