package neighbour

import (
	"context"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see metric.PrometheusCollector).
type MetricsCollector interface {
	// RecordFetch is called after each artifact download attempt.
	// bytes is the number of bytes written, err is nil if successful.
	RecordFetch(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after each uncached load attempt.
	RecordLoad(duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFetch(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)         {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchBytes       atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int64, _ time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(bytes)
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FetchCount:     b.FetchCount.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		FetchBytes:     b.FetchBytes.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FetchCount     int64
	FetchErrors    int64
	FetchBytes     int64
	LoadCount      int64
	LoadErrors     int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
}

// observer adapts a MetricsCollector and Logger to the fetch and loader
// observer hooks.
type observer struct {
	mc     MetricsCollector
	logger *Logger
}

func (o observer) ObserveFetch(ctx context.Context, url string, bytes int64, d time.Duration, err error) {
	o.mc.RecordFetch(bytes, d, err)
	o.logger.LogFetch(ctx, url, bytes, d, err)
}

func (o observer) ObserveLoad(d time.Duration, err error) {
	o.mc.RecordLoad(d, err)
}
