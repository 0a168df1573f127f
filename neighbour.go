package neighbour

import (
	"context"
	"time"

	"github.com/hupe1980/neighbour/fetch"
	"github.com/hupe1980/neighbour/loader"
)

// ArtifactLoader provides the memoized artifacts.
type ArtifactLoader interface {
	Load(ctx context.Context) (*loader.Artifacts, error)
}

// Engine answers name queries against the loaded artifacts.
// It is safe for concurrent use.
type Engine struct {
	loader  ArtifactLoader
	k       int
	logger  *Logger
	metrics MetricsCollector
}

// New creates an Engine on top of an existing loader.
func New(l ArtifactLoader, optFns ...Option) *Engine {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		loader:  l,
		k:       opts.k,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}
}

// Open wires a fetcher and a memoized loader for spec and returns an Engine
// over them. Nothing is fetched until the first Search or Warm.
func Open(spec loader.Spec, optFns ...Option) *Engine {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	obs := observer{mc: opts.metricsCollector, logger: opts.logger}

	// Download outcomes are logged by the observer.
	fetchOpts := append([]fetch.Option{
		fetch.WithObserver(obs),
	}, opts.fetchOptions...)

	f := fetch.New(fetchOpts...)
	for scheme, src := range opts.sources {
		f.Register(scheme, src)
	}

	l := loader.New(spec, f,
		loader.WithLogger(opts.logger.Logger),
		loader.WithObserver(obs),
	)

	return New(l, optFns...)
}

// K returns the number of matches returned per search.
func (e *Engine) K() int { return e.k }

// Warm loads the artifacts without running a query.
func (e *Engine) Warm(ctx context.Context) error {
	_, err := e.loader.Load(ctx)
	e.logger.LogLoad(ctx, err)
	return err
}

// Ready reports whether the artifacts are loaded.
func (e *Engine) Ready() bool {
	if r, ok := e.loader.(interface{ Loaded() bool }); ok {
		return r.Loaded()
	}
	return false
}

// Reset drops the memoized artifacts if the loader supports it.
func (e *Engine) Reset() {
	if r, ok := e.loader.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// Search returns the engine's k nearest horses to the horse called name.
func (e *Engine) Search(ctx context.Context, name string) (*Result, error) {
	return e.SearchK(ctx, name, e.k)
}

// SearchK is Search with an explicit k.
func (e *Engine) SearchK(ctx context.Context, name string, k int) (*Result, error) {
	a, err := e.loader.Load(ctx)
	if err != nil {
		e.logger.LogLoad(ctx, err)
		return nil, err
	}

	start := time.Now()
	res, err := FindMatches(ctx, name, a, k)
	e.metrics.RecordSearch(k, time.Since(start), err)

	n := 0
	if res != nil {
		n = len(res.Matches)
		if res.DuplicateCount > 1 {
			e.logger.DebugContext(ctx, "name shared by several horses, using first",
				"name", name,
				"count", res.DuplicateCount,
				"horse_id", res.Searched.HorseID,
			)
		}
	}
	e.logger.LogSearch(ctx, name, k, n, err)

	return res, err
}
