// Package appconfig manages loading and validating the application configuration.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, an optional config file (YAML, JSON or TOML), a .env file,
// NEIGHBOUR_* environment variables and command-line flags bound by the CLI.
package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hupe1980/neighbour"
	"github.com/hupe1980/neighbour/distance"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/loader"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NEIGHBOUR"

var (
	// ErrMissingFile is returned when an artifact has no local file name.
	ErrMissingFile = errors.New("artifact file name is required")

	// ErrInvalidURL is returned for artifact URLs without a scheme.
	ErrInvalidURL = errors.New("artifact url must be absolute")

	// ErrInvalidK is returned when the match count is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrMetricNeedsFlat is returned when a non-Euclidean metric is combined
	// with the hnsw index, whose metric is fixed by the model artifact.
	ErrMetricNeedsFlat = errors.New("metric can only be changed for the flat index")

	// ErrInvalidLogLevel is returned for unknown log levels.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat is returned for unknown log formats.
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Artifact locates one remote file and its local name.
type Artifact struct {
	URL  string `mapstructure:"url"`
	File string `mapstructure:"file"`
}

// IndexConfig selects the neighbour index.
type IndexConfig struct {
	Kind     string `mapstructure:"kind"`
	EfSearch int    `mapstructure:"ef_search"`
	K        int    `mapstructure:"k"`
	// Metric is the flat index distance: euclidean, sqeuclidean or cosine.
	Metric string `mapstructure:"metric"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr              string  `mapstructure:"addr"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	Metrics           bool    `mapstructure:"metrics"`
}

// FetchConfig configures artifact downloads.
type FetchConfig struct {
	ChunkSize      int `mapstructure:"chunk_size"`
	BytesPerSecond int `mapstructure:"bytes_per_second"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// S3Config enables the s3:// artifact source. Credentials come from the
// default AWS chain.
type S3Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
}

// MinIOConfig enables the minio:// artifact source.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Config represents the top-level application configuration.
type Config struct {
	DataDir    string       `mapstructure:"data_dir"`
	Dataset    Artifact     `mapstructure:"dataset"`
	Embeddings Artifact     `mapstructure:"embeddings"`
	Model      Artifact     `mapstructure:"model"`
	Index      IndexConfig  `mapstructure:"index"`
	Server     ServerConfig `mapstructure:"server"`
	Fetch      FetchConfig  `mapstructure:"fetch"`
	Log        LogConfig    `mapstructure:"log"`
	S3         S3Config     `mapstructure:"s3"`
	MinIO      MinIOConfig  `mapstructure:"minio"`

	ConfigPath string `mapstructure:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:    ".",
		Dataset:    Artifact{File: "data_with_attributes_reduced.csv.gz"},
		Embeddings: Artifact{File: "horse_embeddings.npy"},
		Model:      Artifact{File: "nn_model.hnsw"},
		Index: IndexConfig{
			Kind:     string(index.KindHNSW),
			EfSearch: 64,
			K:        neighbour.DefaultK,
			Metric:   "euclidean",
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Burst:   10,
			Metrics: true,
		},
		Fetch: FetchConfig{
			ChunkSize: 32 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every key with its default so environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("dataset.url", d.Dataset.URL)
	v.SetDefault("dataset.file", d.Dataset.File)
	v.SetDefault("embeddings.url", d.Embeddings.URL)
	v.SetDefault("embeddings.file", d.Embeddings.File)
	v.SetDefault("model.url", d.Model.URL)
	v.SetDefault("model.file", d.Model.File)
	v.SetDefault("index.kind", d.Index.Kind)
	v.SetDefault("index.ef_search", d.Index.EfSearch)
	v.SetDefault("index.k", d.Index.K)
	v.SetDefault("index.metric", d.Index.Metric)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.requests_per_second", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("fetch.chunk_size", d.Fetch.ChunkSize)
	v.SetDefault("fetch.bytes_per_second", d.Fetch.BytesPerSecond)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("s3.enabled", d.S3.Enabled)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("minio.endpoint", d.MinIO.Endpoint)
	v.SetDefault("minio.access_key", d.MinIO.AccessKey)
	v.SetDefault("minio.secret_key", d.MinIO.SecretKey)
	v.SetDefault("minio.use_ssl", d.MinIO.UseSSL)
}

// LoadDotEnv loads path (default ".env") into the process environment.
// A missing file is not an error; existing variables are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration with v. configPath may be empty.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	for name, a := range map[string]Artifact{
		"dataset":    c.Dataset,
		"embeddings": c.Embeddings,
		"model":      c.Model,
	} {
		if a.File == "" {
			return fmt.Errorf("%s: %w", name, ErrMissingFile)
		}
		if a.URL != "" {
			u, err := url.Parse(a.URL)
			if err != nil || u.Scheme == "" {
				return fmt.Errorf("%s: %w: %q", name, ErrInvalidURL, a.URL)
			}
		}
	}

	kind, err := index.ParseKind(c.Index.Kind)
	if err != nil {
		return err
	}
	metric, err := distance.ParseMetric(c.Index.Metric)
	if err != nil {
		return err
	}
	if metric != distance.MetricEuclidean && kind != index.KindFlat {
		return fmt.Errorf("%w: %q", ErrMetricNeedsFlat, c.Index.Metric)
	}
	if c.Index.K <= 0 {
		return ErrInvalidK
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}

	return nil
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	return lvl, nil
}

// Logger builds the configured logger.
func (c Config) Logger() *neighbour.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	if strings.EqualFold(c.Log.Format, "json") {
		return neighbour.NewJSONLogger(lvl)
	}
	return neighbour.NewTextLogger(lvl)
}

// Spec converts the artifact settings to a loader spec.
func (c Config) Spec() loader.Spec {
	kind, err := index.ParseKind(c.Index.Kind)
	if err != nil {
		kind = index.KindHNSW
	}
	metric, err := distance.ParseMetric(c.Index.Metric)
	if err != nil {
		metric = distance.MetricEuclidean
	}
	return loader.Spec{
		DataDir:    c.DataDir,
		Dataset:    loader.Artifact(c.Dataset),
		Embeddings: loader.Artifact(c.Embeddings),
		Model:      loader.Artifact(c.Model),
		IndexKind:  kind,
		EfSearch:   c.Index.EfSearch,
		Metric:     metric,
	}
}
