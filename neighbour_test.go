package neighbour

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neighbour/fetch"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/loader"
	"github.com/hupe1980/neighbour/testutil"
)

func serverSpec(srv *testutil.ArtifactServer, dir string) loader.Spec {
	return loader.Spec{
		DataDir:    dir,
		Dataset:    loader.Artifact{URL: srv.URL(testutil.DatasetFile), File: testutil.DatasetFile},
		Embeddings: loader.Artifact{URL: srv.URL(testutil.EmbeddingsFile), File: testutil.EmbeddingsFile},
		Model:      loader.Artifact{URL: srv.URL(testutil.ModelFile), File: testutil.ModelFile},
		IndexKind:  index.KindHNSW,
	}
}

func newServer(t *testing.T, mutate func(map[string][]byte)) *testutil.ArtifactServer {
	t.Helper()
	files, err := testutil.ABC().Files()
	require.NoError(t, err)
	if mutate != nil {
		mutate(files)
	}
	srv := testutil.NewArtifactServer(files)
	t.Cleanup(srv.Close)
	return srv
}

func TestEngine_Search(t *testing.T) {
	srv := newServer(t, nil)
	mc := &BasicMetricsCollector{}
	eng := Open(serverSpec(srv, t.TempDir()), WithMetricsCollector(mc), WithK(2))

	assert.False(t, eng.Ready())

	res, err := eng.Search(context.Background(), "Alpha")
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "a", res.Matches[0].HorseID)
	assert.Equal(t, "b", res.Matches[1].HorseID)
	assert.True(t, eng.Ready())

	_, err = eng.Search(context.Background(), "Bravo")
	require.NoError(t, err)

	assert.Equal(t, 3, srv.TotalHits(), "artifacts are fetched once")

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.FetchCount)
	assert.Zero(t, stats.FetchErrors)
	assert.Positive(t, stats.FetchBytes)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(2), stats.SearchCount)
}

func TestEngine_LogsFetchOutcomes(t *testing.T) {
	newLogger := func(buf *bytes.Buffer) *Logger {
		return NewLogger(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	t.Run("Downloaded", func(t *testing.T) {
		srv := newServer(t, nil)
		var buf bytes.Buffer
		eng := Open(serverSpec(srv, t.TempDir()), WithLogger(newLogger(&buf)))

		require.NoError(t, eng.Warm(context.Background()))

		out := buf.String()
		assert.Equal(t, 3, strings.Count(out, `msg="artifact downloaded"`))
		assert.NotContains(t, out, "artifact download failed")
	})

	t.Run("Failed", func(t *testing.T) {
		srv := newServer(t, func(files map[string][]byte) {
			for name := range files {
				delete(files, name)
			}
		})
		var buf bytes.Buffer
		eng := Open(serverSpec(srv, t.TempDir()), WithLogger(newLogger(&buf)))

		require.Error(t, eng.Warm(context.Background()))

		out := buf.String()
		assert.Contains(t, out, `msg="artifact download failed"`)
		assert.NotContains(t, out, `msg="artifact downloaded"`)
	})
}

func TestEngine_ConcurrentSearches(t *testing.T) {
	srv := newServer(t, nil)
	eng := Open(serverSpec(srv, t.TempDir()))

	var wg sync.WaitGroup
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Alpha", "Bravo", "Charlie"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := eng.Search(context.Background(), name)
			assert.NoError(t, err)
			assert.Len(t, res.Matches, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, srv.TotalHits())
}

func TestEngine_NotFoundIsNonFatal(t *testing.T) {
	srv := newServer(t, nil)
	eng := Open(serverSpec(srv, t.TempDir()))

	_, err := eng.Search(context.Background(), "Nobody")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Horse name 'Nobody' not found in the dataset.", UserMessage(err))

	res, err := eng.Search(context.Background(), "Charlie")
	require.NoError(t, err)
	assert.Equal(t, "c", res.Matches[0].HorseID)
}

func TestEngine_RemoteFetchError(t *testing.T) {
	srv := newServer(t, func(files map[string][]byte) {
		delete(files, testutil.EmbeddingsFile)
	})
	dir := t.TempDir()
	eng := Open(serverSpec(srv, dir))

	_, err := eng.Search(context.Background(), "Alpha")
	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, 404, rfe.StatusCode)
	assert.Equal(t,
		"Failed to download file from "+srv.URL(testutil.EmbeddingsFile)+". HTTP Status Code: 404",
		UserMessage(err),
	)
	assert.NoFileExists(t, filepath.Join(dir, testutil.EmbeddingsFile))
	assert.False(t, eng.Ready())
}

func TestEngine_Unavailable(t *testing.T) {
	srv := newServer(t, func(files map[string][]byte) {
		files[testutil.ModelFile] = []byte("not a graph")
	})
	eng := Open(serverSpec(srv, t.TempDir()))

	_, err := eng.Search(context.Background(), "Alpha")
	assert.ErrorIs(t, err, ErrUnavailable)

	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, loader.ArtifactModel, de.Artifact)
	assert.True(t, strings.HasPrefix(UserMessage(err), "Error loading data: "))

	hits := srv.TotalHits()
	_, err = eng.Search(context.Background(), "Alpha")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, hits, srv.TotalHits())

	eng.Reset()
	assert.False(t, eng.Ready())
}

func TestEngine_WithSource(t *testing.T) {
	files, err := testutil.ABC().Files()
	require.NoError(t, err)

	srcDir := t.TempDir()
	for name, data := range files {
		require.NoError(t, writeFile(filepath.Join(srcDir, name), data))
	}

	spec := loader.Spec{
		DataDir:    t.TempDir(),
		Dataset:    loader.Artifact{URL: "local:///" + testutil.DatasetFile, File: testutil.DatasetFile},
		Embeddings: loader.Artifact{URL: "local:///" + testutil.EmbeddingsFile, File: testutil.EmbeddingsFile},
		IndexKind:  index.KindFlat,
	}

	src := fetch.SourceFunc(func(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
		return fetch.FileSource{}.Open(ctx, &url.URL{Scheme: "file", Path: filepath.Join(srcDir, u.Path)})
	})

	eng := Open(spec, WithSource("local", src))
	require.NoError(t, eng.Warm(context.Background()))
	assert.True(t, eng.Ready())

	res, err := eng.SearchK(context.Background(), "Charlie", 1)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "c", res.Matches[0].HorseID)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "The number of matches must be positive.", UserMessage(ErrInvalidK))
	assert.Equal(t,
		"Error loading data: bad header",
		UserMessage(&DeserializationError{Artifact: "dataset", Path: "x", Err: errString("bad header")}),
	)
}

type errString string

func (e errString) Error() string { return string(e) }

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}
