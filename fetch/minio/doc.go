// Package minio provides a fetch.Source for minio://bucket/key URLs served by
// MinIO or any other S3-compatible object store.
//
// Usage:
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	f.Register(minio.Scheme, minio.NewSource(client))
package minio
