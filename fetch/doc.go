// Package fetch makes sure artifact files exist on local disk.
//
// A Fetcher resolves a remote URL to a Source by scheme and streams the
// resource in bounded chunks into a temporary file beside the destination.
// The temporary file is synced and renamed onto the destination only after
// the whole body has been copied, so a failed download never leaves a
// truncated file under the final name.
//
// # Built-in Sources
//
//   - HTTPSource: plain streaming GET, success is exactly HTTP 200
//   - FileSource: file:// URLs, mainly for tests and air-gapped hosts
//   - s3.Source: s3://bucket/key through the AWS SDK v2
//   - minio.Source: minio://bucket/key against an S3-compatible endpoint
//
// # Usage
//
//	f := fetch.New(fetch.WithLogger(logger))
//	f.Register("s3", s3.NewSource(client))
//	downloaded, err := f.EnsureLocal(ctx, url, "data/horse_embeddings.npy")
package fetch
