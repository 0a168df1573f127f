package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/neighbour"
	"github.com/hupe1980/neighbour/fetch"
	fetchminio "github.com/hupe1980/neighbour/fetch/minio"
	fetchs3 "github.com/hupe1980/neighbour/fetch/s3"
	"github.com/hupe1980/neighbour/internal/appconfig"
)

// bind ties a flag to a config key. Unset flags fall back to the key's
// other sources.
func bind(v *viper.Viper, key string, f *pflag.Flag) {
	_ = v.BindPFlag(key, f)
}

// sources builds the object store sources enabled by cfg.
func sources(ctx context.Context, cfg *appconfig.Config) (map[string]fetch.Source, error) {
	out := make(map[string]fetch.Source)

	if cfg.S3.Enabled {
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		out[fetchs3.Scheme] = fetchs3.NewSource(awss3.NewFromConfig(awsCfg))
	}

	if cfg.MinIO.Endpoint != "" {
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		out[fetchminio.Scheme] = fetchminio.NewSource(client)
	}

	return out, nil
}

func fetchOptions(cfg *appconfig.Config, logger *neighbour.Logger) []fetch.Option {
	return []fetch.Option{
		fetch.WithChunkSize(cfg.Fetch.ChunkSize),
		fetch.WithBandwidth(cfg.Fetch.BytesPerSecond),
		fetch.WithLogger(logger.Logger),
	}
}

// newEngine wires the engine described by cfg. mc may be nil.
func newEngine(ctx context.Context, cfg *appconfig.Config, logger *neighbour.Logger, mc neighbour.MetricsCollector) (*neighbour.Engine, error) {
	srcs, err := sources(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []neighbour.Option{
		neighbour.WithLogger(logger),
		neighbour.WithK(cfg.Index.K),
		neighbour.WithFetchOptions(fetchOptions(cfg, logger)...),
	}
	if mc != nil {
		opts = append(opts, neighbour.WithMetricsCollector(mc))
	}
	for scheme, src := range srcs {
		opts = append(opts, neighbour.WithSource(scheme, src))
	}

	return neighbour.Open(cfg.Spec(), opts...), nil
}

// registry is the Prometheus registry used by serve.
func registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
