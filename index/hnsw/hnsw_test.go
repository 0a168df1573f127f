package hnsw

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/neighbour/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHNSW(t *testing.T) {
	ctx := context.Background()
	vectors := [][]float32{{0, 0}, {1, 0}, {5, 5}}

	t.Run("BuildAndSearch", func(t *testing.T) {
		h, err := Build(vectors)
		require.NoError(t, err)
		assert.Equal(t, 2, h.Dimension())
		assert.Equal(t, 3, h.Len())

		res, err := h.Search(ctx, []float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, 0, res[0].Position)
		assert.Equal(t, 1, res[1].Position)
		assert.InDelta(t, 0.0, res[0].Distance, 1e-6)
		assert.InDelta(t, 1.0, res[1].Distance, 1e-6)
	})

	t.Run("ExportAndLoad", func(t *testing.T) {
		h, err := Build(vectors)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, h.Export(&buf))

		loaded, err := Load(&buf)
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.Len())
		assert.Equal(t, 2, loaded.Dimension())

		res, err := loaded.Search(ctx, []float32{5, 5}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, 2, res[0].Position)
	})

	t.Run("ExportAndLoadFile", func(t *testing.T) {
		h, err := Build(vectors)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "model.hnsw")
		out, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, h.Export(out))
		require.NoError(t, out.Close())

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		loaded, err := Load(f, func(o *Options) { o.EfSearch = 32 })
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.Len())

		res, err := loaded.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, 1, res[0].Position)
	})

	t.Run("LoadGarbage", func(t *testing.T) {
		_, err := Load(bytes.NewReader([]byte("not a graph")))
		assert.Error(t, err)
	})

	t.Run("BuildEmpty", func(t *testing.T) {
		_, err := Build(nil)
		assert.ErrorIs(t, err, ErrEmptyGraph)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		h, err := Build(vectors)
		require.NoError(t, err)

		_, err = h.Search(ctx, []float32{0, 0, 0}, 1)
		var dm *index.ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)

		_, err = h.Search(ctx, []float32{0, 0}, -1)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})
}
