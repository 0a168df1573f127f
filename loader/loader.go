package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/neighbour/dataset"
	"github.com/hupe1980/neighbour/distance"
	"github.com/hupe1980/neighbour/embedding"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/index/flat"
	"github.com/hupe1980/neighbour/index/hnsw"
)

// Artifact names used in logs and errors.
const (
	ArtifactDataset    = "dataset"
	ArtifactEmbeddings = "embeddings"
	ArtifactModel      = "model"
)

// Fetcher ensures a remote artifact exists at a local path.
type Fetcher interface {
	EnsureLocal(ctx context.Context, remoteURL, localPath string) (bool, error)
}

// Artifact locates one remote file and its local name.
type Artifact struct {
	URL  string
	File string
}

// Spec describes what to load.
type Spec struct {
	// DataDir holds the local copies. Empty means the working directory.
	DataDir string

	Dataset    Artifact
	Embeddings Artifact
	Model      Artifact

	// IndexKind selects the neighbour index. KindHNSW loads the model
	// artifact; KindFlat builds an exact index from the embeddings.
	IndexKind index.Kind

	// EfSearch is the hnsw candidate list size.
	EfSearch int

	// Metric is the distance used by the flat index. The hnsw model
	// carries its own.
	Metric distance.Metric
}

// Artifacts is the in-memory result of a load. It is read-only.
type Artifacts struct {
	Dataset    *dataset.Dataset
	Embeddings *embedding.Table
	Index      index.Index
	LoadedAt   time.Time
}

// Observer receives load outcomes.
type Observer interface {
	ObserveLoad(d time.Duration, err error)
}

// Options contains configuration for a Loader.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// Option configures a Loader.
type Option func(o *Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the load observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// Loader memoizes a single load of Spec.
type Loader struct {
	spec    Spec
	fetcher Fetcher
	logger  *slog.Logger
	obs     Observer

	mu        sync.Mutex
	done      bool
	artifacts *Artifacts
	err       error
}

// New creates a Loader. Nothing is fetched until the first Load.
func New(spec Spec, fetcher Fetcher, optFns ...Option) *Loader {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Loader{
		spec:    spec,
		fetcher: fetcher,
		logger:  logger,
		obs:     opts.Observer,
	}
}

// Spec returns the loader's spec.
func (l *Loader) Spec() Spec { return l.spec }

// Load returns the memoized artifacts, loading them on first use.
// Concurrent callers block until the first load finishes and then share
// its result.
func (l *Loader) Load(ctx context.Context) (*Artifacts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.artifacts, l.err
	}

	start := time.Now()
	a, err := l.load(ctx)
	elapsed := time.Since(start)

	if l.obs != nil {
		l.obs.ObserveLoad(elapsed, err)
	}

	if err != nil {
		var de *DeserializationError
		if errors.As(err, &de) {
			l.done = true
			l.err = &unavailableError{cause: de}
			l.logger.ErrorContext(ctx, "artifacts unavailable",
				"artifact", de.Artifact,
				"path", de.Path,
				"error", de.Err,
			)
			return nil, l.err
		}
		// Fetch errors are returned but not cached.
		return nil, err
	}

	l.done = true
	l.artifacts = a
	l.logger.InfoContext(ctx, "artifacts loaded",
		"records", a.Dataset.Len(),
		"vectors", a.Embeddings.Len(),
		"dim", a.Embeddings.Dim(),
		"index", string(l.kind()),
		"duration_ms", elapsed.Milliseconds(),
	)
	return a, nil
}

// Loaded reports whether a load result is memoized.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done && l.err == nil
}

// Reset clears the memo so the next Load starts over.
// Local files are kept and will not be fetched again.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done = false
	l.artifacts = nil
	l.err = nil
}

func (l *Loader) kind() index.Kind {
	if l.spec.IndexKind == "" {
		return index.KindHNSW
	}
	return l.spec.IndexKind
}

func (l *Loader) path(a Artifact) string {
	return filepath.Join(l.spec.DataDir, a.File)
}

func (l *Loader) required() map[string]Artifact {
	req := map[string]Artifact{
		ArtifactDataset:    l.spec.Dataset,
		ArtifactEmbeddings: l.spec.Embeddings,
	}
	if l.kind() == index.KindHNSW {
		req[ArtifactModel] = l.spec.Model
	}
	return req
}

func (l *Loader) fetchAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, a := range l.required() {
		g.Go(func() error {
			p := l.path(a)
			if a.URL == "" {
				if _, err := os.Stat(p); err != nil {
					return fmt.Errorf("loader: %s artifact has no url: %w", name, err)
				}
				return nil
			}
			downloaded, err := l.fetcher.EnsureLocal(gctx, a.URL, p)
			if err != nil {
				return err
			}
			if downloaded {
				l.logger.InfoContext(gctx, "artifact fetched", "artifact", name, "path", p)
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) load(ctx context.Context) (*Artifacts, error) {
	if err := l.fetchAll(ctx); err != nil {
		return nil, err
	}

	dsPath := l.path(l.spec.Dataset)
	ds, err := dataset.ReadFile(dsPath)
	if err != nil {
		return nil, &DeserializationError{Artifact: ArtifactDataset, Path: dsPath, Err: err}
	}

	embPath := l.path(l.spec.Embeddings)
	m, err := embedding.ReadFile(embPath)
	if err != nil {
		return nil, &DeserializationError{Artifact: ArtifactEmbeddings, Path: embPath, Err: err}
	}

	if m.Rows != ds.Len() {
		l.logger.WarnContext(ctx, "dataset and embeddings differ in length",
			"records", ds.Len(),
			"vectors", m.Rows,
		)
	}

	table := embedding.Align(ds.IDs(), m)

	idx, err := l.buildIndex(table, ds.Len())
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Dataset:    ds,
		Embeddings: table,
		Index:      idx,
		LoadedAt:   time.Now(),
	}, nil
}

func (l *Loader) buildIndex(table *embedding.Table, rows int) (index.Index, error) {
	switch l.kind() {
	case index.KindFlat:
		metric := l.spec.Metric
		idx, err := flat.New(table.Vectors(), func(o *flat.Options) { o.Metric = metric })
		if err != nil {
			return nil, &DeserializationError{Artifact: ArtifactEmbeddings, Path: l.path(l.spec.Embeddings), Err: err}
		}
		return idx, nil
	case index.KindHNSW:
		p := l.path(l.spec.Model)
		idx, err := l.readModel(p)
		if err != nil {
			return nil, &DeserializationError{Artifact: ArtifactModel, Path: p, Err: err}
		}
		if idx.Dimension() != table.Dim() {
			return nil, &DeserializationError{
				Artifact: ArtifactModel,
				Path:     p,
				Err:      &index.ErrDimensionMismatch{Expected: table.Dim(), Actual: idx.Dimension()},
			}
		}
		if idx.Len() > rows {
			return nil, &DeserializationError{
				Artifact: ArtifactModel,
				Path:     p,
				Err:      fmt.Errorf("%w: %d nodes, %d rows", ErrModelSize, idx.Len(), rows),
			}
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("loader: unknown index kind %q", l.spec.IndexKind)
	}
}

func (l *Loader) readModel(path string) (*hnsw.HNSW, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var opts []func(*hnsw.Options)
	if l.spec.EfSearch > 0 {
		ef := l.spec.EfSearch
		opts = append(opts, func(o *hnsw.Options) { o.EfSearch = ef })
	}
	return hnsw.Load(f, opts...)
}
