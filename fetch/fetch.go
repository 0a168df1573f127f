package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultChunkSize is the copy buffer size used when streaming a download.
const DefaultChunkSize = 32 * 1024

// Observer receives the outcome of every download attempt.
type Observer interface {
	ObserveFetch(ctx context.Context, url string, bytes int64, d time.Duration, err error)
}

// Options contains configuration for a Fetcher.
type Options struct {
	// ChunkSize bounds the amount of the body held in memory at once.
	ChunkSize int

	// BytesPerSecond caps the download bandwidth. Zero means unlimited.
	BytesPerSecond int

	// HTTPClient is used by the built-in http and https sources.
	HTTPClient *http.Client

	Logger   *slog.Logger
	Observer Observer
}

// DefaultOptions contains the default Fetcher options.
var DefaultOptions = Options{
	ChunkSize: DefaultChunkSize,
}

// Option configures a Fetcher.
type Option func(o *Options)

// WithChunkSize sets the streaming chunk size.
func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

// WithBandwidth caps the download rate in bytes per second.
func WithBandwidth(bytesPerSecond int) Option {
	return func(o *Options) {
		o.BytesPerSecond = bytesPerSecond
	}
}

// WithHTTPClient sets the client of the built-in http sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the fetch observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// Fetcher downloads remote artifacts to local files.
// It is safe for concurrent use; concurrent calls for the same local path
// are not deduplicated.
type Fetcher struct {
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.RWMutex
	sources map[string]Source
}

// New creates a Fetcher with the http, https and file sources registered.
func New(optFns ...Option) *Fetcher {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f := &Fetcher{
		opts:    opts,
		logger:  logger,
		sources: make(map[string]Source),
	}

	if opts.BytesPerSecond > 0 {
		burst := max(opts.BytesPerSecond, opts.ChunkSize)
		f.limiter = rate.NewLimiter(rate.Limit(opts.BytesPerSecond), burst)
	}

	httpSrc := NewHTTPSource(opts.HTTPClient)
	f.sources["http"] = httpSrc
	f.sources["https"] = httpSrc
	f.sources["file"] = FileSource{}

	return f
}

// Register installs src for scheme, replacing any previous source.
func (f *Fetcher) Register(scheme string, src Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[strings.ToLower(scheme)] = src
}

func (f *Fetcher) source(scheme string) (Source, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	src, ok := f.sources[strings.ToLower(scheme)]
	return src, ok
}

// EnsureLocal makes sure localPath exists. If it already exists nothing is
// fetched, regardless of its content. Otherwise remoteURL is streamed into
// a temporary file that is renamed onto localPath once complete.
//
// It reports whether a download took place.
func (f *Fetcher) EnsureLocal(ctx context.Context, remoteURL, localPath string) (bool, error) {
	if _, err := os.Stat(localPath); err == nil {
		f.logger.DebugContext(ctx, "artifact present", "path", localPath)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return false, fmt.Errorf("%w: %q has no scheme", ErrInvalidURL, remoteURL)
	}

	src, ok := f.source(u.Scheme)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	start := time.Now()
	n, err := f.download(ctx, src, u, localPath)
	elapsed := time.Since(start)

	if f.opts.Observer != nil {
		f.opts.Observer.ObserveFetch(ctx, remoteURL, n, elapsed, err)
	}

	if err != nil {
		f.logger.ErrorContext(ctx, "artifact download failed",
			"url", remoteURL,
			"path", localPath,
			"error", err,
		)
		return false, err
	}

	f.logger.InfoContext(ctx, "artifact downloaded",
		"url", remoteURL,
		"path", localPath,
		"bytes", n,
		"duration_ms", elapsed.Milliseconds(),
	)

	return true, nil
}

func (f *Fetcher) download(ctx context.Context, src Source, u *url.URL, localPath string) (n int64, err error) {
	body, err := src.Open(ctx, u)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".*.part")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	var r io.Reader = body
	if f.limiter != nil {
		r = &limitedReader{ctx: ctx, r: body, limiter: f.limiter}
	}
	r = &ctxReader{ctx: ctx, r: r}

	buf := make([]byte, f.opts.ChunkSize)
	n, err = io.CopyBuffer(onlyWriter{tmp}, r, buf)
	if err != nil {
		return n, err
	}

	if err = tmp.Sync(); err != nil {
		return n, err
	}
	if err = tmp.Close(); err != nil {
		return n, err
	}

	if err = os.Rename(tmpName, localPath); err != nil {
		return n, err
	}

	return n, nil
}

// onlyWriter hides ReadFrom so io.CopyBuffer honours the chunk buffer.
type onlyWriter struct {
	w io.Writer
}

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

// ctxReader stops a copy as soon as ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if len(p) > l.limiter.Burst() {
		p = p[:l.limiter.Burst()]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
