package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedScheme is returned when no Source is registered for the URL scheme.
	ErrUnsupportedScheme = errors.New("fetch: unsupported url scheme")

	// ErrInvalidURL is returned for URLs without scheme or path.
	ErrInvalidURL = errors.New("fetch: invalid url")
)

// RemoteFetchError reports a non-success response from the remote host.
//
// StatusCode carries the HTTP status of the response. Object store sources
// report the HTTP status of the failed request.
type RemoteFetchError struct {
	URL        string
	StatusCode int
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %d", e.URL, e.StatusCode)
}
