package appconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neighbour/distance"
	"github.com/hupe1980/neighbour/index"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Dataset, cfg.Dataset)
	assert.Equal(t, 5, cfg.Index.K)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	spec := cfg.Spec()
	assert.Equal(t, index.KindHNSW, spec.IndexKind)
	assert.Equal(t, "horse_embeddings.npy", spec.Embeddings.File)
	assert.Equal(t, 64, spec.EfSearch)
	assert.Equal(t, distance.MetricEuclidean, spec.Metric)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/neighbour
dataset:
  url: https://example.com/data.csv.gz
index:
  kind: flat
  k: 3
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv("NEIGHBOUR_SERVER_ADDR", ":9090")
	t.Setenv("NEIGHBOUR_INDEX_K", "7")
	t.Setenv("NEIGHBOUR_INDEX_METRIC", "sqeuclidean")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/neighbour", cfg.DataDir)
	assert.Equal(t, "https://example.com/data.csv.gz", cfg.Dataset.URL)
	assert.Equal(t, "data_with_attributes_reduced.csv.gz", cfg.Dataset.File)
	assert.Equal(t, "flat", cfg.Index.Kind)
	assert.Equal(t, 7, cfg.Index.K)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, distance.MetricSquaredL2, cfg.Spec().Metric)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"missing file", func(c *Config) { c.Model.File = "" }, ErrMissingFile},
		{"relative url", func(c *Config) { c.Dataset.URL = "data.csv" }, ErrInvalidURL},
		{"zero k", func(c *Config) { c.Index.K = 0 }, ErrInvalidK},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidLogFormat},
		{"cosine with hnsw", func(c *Config) { c.Index.Metric = "cosine" }, ErrMetricNeedsFlat},
		{"cosine with flat", func(c *Config) { c.Index.Kind = "flat"; c.Index.Metric = "cosine" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	cfg := DefaultConfig()
	cfg.Index.Kind = "annoy"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Index.Metric = "manhattan"
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEIGHBOUR_DOTENV_CHECK=yes\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("NEIGHBOUR_DOTENV_CHECK") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "yes", os.Getenv("NEIGHBOUR_DOTENV_CHECK"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
