package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/neighbour/fetch"
)

// Scheme is the URL scheme served by Source.
const Scheme = "minio"

// Compile time check to ensure Source satisfies the fetch.Source interface.
var _ fetch.Source = (*Source)(nil)

// Source streams objects from a MinIO endpoint.
type Source struct {
	client *minio.Client
}

// NewSource creates a new MinIO source.
func NewSource(client *minio.Client) *Source {
	return &Source{client: client}
}

// Open streams minio://bucket/key.
func (s *Source) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %q must be minio://bucket/key", fetch.ErrInvalidURL, u.String())
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(u, err)
	}

	// GetObject is lazy; Stat issues the request and surfaces missing keys.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translateError(u, err)
	}

	return obj, nil
}

func translateError(u *url.URL, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode != 0:
		return &fetch.RemoteFetchError{URL: u.String(), StatusCode: resp.StatusCode}
	case resp.Code == "NoSuchKey" || resp.Code == "NotFound" || resp.Code == "NoSuchBucket":
		return &fetch.RemoteFetchError{URL: u.String(), StatusCode: http.StatusNotFound}
	default:
		return err
	}
}
