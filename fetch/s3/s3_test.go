package s3

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neighbour/fetch"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSource_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	src := NewSource(mockClient)

	t.Run("Success", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Bucket == "artifacts" && *input.Key == "models/nn_model.hnsw"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("graph")),
		}, nil).Once()

		rc, err := src.Open(context.Background(), mustParse(t, "s3://artifacts/models/nn_model.hnsw"))
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "graph", string(data))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Key == "missing.npy"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := src.Open(context.Background(), mustParse(t, "s3://artifacts/missing.npy"))
		var rfe *fetch.RemoteFetchError
		require.ErrorAs(t, err, &rfe)
		assert.Equal(t, http.StatusNotFound, rfe.StatusCode)
		assert.Equal(t, "s3://artifacts/missing.npy", rfe.URL)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		_, err := src.Open(context.Background(), mustParse(t, "s3://artifacts"))
		assert.ErrorIs(t, err, fetch.ErrInvalidURL)
	})

	mockClient.AssertExpectations(t)
}

func TestSource_WithFetcher(t *testing.T) {
	mockClient := new(MockS3Client)
	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("horse_id,horse_name\n")),
	}, nil).Once()

	f := fetch.New()
	f.Register(Scheme, NewSource(mockClient))

	dst := t.TempDir() + "/data.csv"
	downloaded, err := f.EnsureLocal(context.Background(), "s3://bucket/data.csv", dst)
	require.NoError(t, err)
	assert.True(t, downloaded)

	// The second call finds the file and never reaches the client.
	downloaded, err = f.EnsureLocal(context.Background(), "s3://bucket/data.csv", dst)
	require.NoError(t, err)
	assert.False(t, downloaded)

	mockClient.AssertExpectations(t)
}
