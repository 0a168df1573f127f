package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
)

// Source opens a remote resource for streaming reads.
//
// Implementations must return a *RemoteFetchError when the remote answers
// with a non-success status and must be safe for concurrent use.
type Source interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, u *url.URL) (io.ReadCloser, error)

// Open calls f.
func (f SourceFunc) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return f(ctx, u)
}

// HTTPSource fetches http and https URLs with a plain GET.
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource returns an HTTPSource. A nil client means http.DefaultClient.
func NewHTTPSource(client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client}
}

// Open issues the GET request. Any status other than 200 is a
// *RemoteFetchError and the response body is discarded.
func (s *HTTPSource) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &RemoteFetchError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

// FileSource serves file:// URLs from the local file system.
type FileSource struct{}

// Open opens the file named by the URL path. A missing file is reported as
// a *RemoteFetchError with status 404.
func (FileSource) Open(_ context.Context, u *url.URL) (io.ReadCloser, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RemoteFetchError{URL: u.String(), StatusCode: http.StatusNotFound}
		}
		return nil, err
	}
	return f, nil
}
