package neighbour

import (
	"github.com/hupe1980/neighbour/fetch"
)

// DefaultK is the number of matches returned per search.
const DefaultK = 5

type options struct {
	k                int
	metricsCollector MetricsCollector
	logger           *Logger
	fetchOptions     []fetch.Option
	sources          map[string]fetch.Source
}

// Option configures an Engine.
type Option func(*options)

// WithK sets the number of matches returned per search.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithLogger sets the logger used by the engine, loader and fetcher.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithFetchOptions passes options to the artifact fetcher built by Open.
func WithFetchOptions(opts ...fetch.Option) Option {
	return func(o *options) {
		o.fetchOptions = append(o.fetchOptions, opts...)
	}
}

// WithSource registers an additional artifact source for a URL scheme
// (for example s3 or minio) on the fetcher built by Open.
func WithSource(scheme string, src fetch.Source) Option {
	return func(o *options) {
		if o.sources == nil {
			o.sources = make(map[string]fetch.Source)
		}
		o.sources[scheme] = src
	}
}

func defaultOptions() options {
	return options{
		k:                DefaultK,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}
