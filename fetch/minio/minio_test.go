package minio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neighbour/fetch"
)

func TestTranslateError(t *testing.T) {
	u, err := url.Parse("minio://bucket/key")
	require.NoError(t, err)

	err = translateError(u, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})
	var rfe *fetch.RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, http.StatusNotFound, rfe.StatusCode)

	err = translateError(u, minio.ErrorResponse{Code: "NoSuchBucket"})
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, http.StatusNotFound, rfe.StatusCode)

	plain := io.ErrUnexpectedEOF
	assert.Equal(t, plain, translateError(u, plain))
}

func TestSource_InvalidURL(t *testing.T) {
	src := NewSource(nil)
	u, err := url.Parse("minio://bucket")
	require.NoError(t, err)

	_, err = src.Open(context.Background(), u)
	assert.ErrorIs(t, err, fetch.ErrInvalidURL)
}

// TestSource_Integration requires a running MinIO instance.
// Skip if not available.
func TestSource_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-neighbour"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	f := fetch.New()
	f.Register(Scheme, NewSource(client))

	_, err = f.EnsureLocal(ctx, "minio://"+bucket+"/does-not-exist.npy", filepath.Join(t.TempDir(), "x.npy"))
	var rfe *fetch.RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, http.StatusNotFound, rfe.StatusCode)
}
