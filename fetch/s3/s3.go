package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/neighbour/fetch"
)

// Scheme is the URL scheme served by Source.
const Scheme = "s3"

// Client is the subset of the S3 API used by Source.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Compile time check to ensure Source satisfies the fetch.Source interface.
var _ fetch.Source = (*Source)(nil)

// Source streams objects from S3.
type Source struct {
	client Client
}

// NewSource creates a new S3 source.
func NewSource(client Client) *Source {
	return &Source{client: client}
}

// Open streams s3://bucket/key. Service errors carrying an HTTP status are
// reported as *fetch.RemoteFetchError.
func (s *Source) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := splitURL(u)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(u, err)
	}

	return out.Body, nil
}

func splitURL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be s3://bucket/key", fetch.ErrInvalidURL, u.String())
	}
	return bucket, key, nil
}

func translateError(u *url.URL, err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return &fetch.RemoteFetchError{URL: u.String(), StatusCode: http.StatusNotFound}
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return &fetch.RemoteFetchError{URL: u.String(), StatusCode: http.StatusNotFound}
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return &fetch.RemoteFetchError{URL: u.String(), StatusCode: re.HTTPStatusCode()}
	}
	return err
}
