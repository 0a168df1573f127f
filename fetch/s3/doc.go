// Package s3 provides a fetch.Source for s3://bucket/key URLs backed by the
// AWS SDK for Go v2.
package s3
