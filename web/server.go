package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hupe1980/neighbour"
)

// Title is the page heading of the form.
const Title = "Next Nearest Horse Neigh-bour"

//go:embed templates/*.html
var templateFS embed.FS

// Searcher runs name lookups.
type Searcher interface {
	SearchK(ctx context.Context, name string, k int) (*neighbour.Result, error)
	K() int
	Ready() bool
}

// Options contains configuration for a Server.
type Options struct {
	Logger *slog.Logger

	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler

	// RequestsPerSecond caps the rate of search requests across all
	// clients. Zero disables the limit.
	RequestsPerSecond float64
	Burst             int

	// MaxK bounds the k query parameter of the JSON API.
	MaxK int
}

// DefaultOptions contains the default Server options.
var DefaultOptions = Options{
	MaxK: 50,
}

// Server is the HTTP front end.
type Server struct {
	searcher Searcher
	opts     Options
	logger   *slog.Logger
	router   *gin.Engine
}

// New creates a Server and its routes.
func New(s Searcher, optFns ...func(o *Options)) *Server {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		searcher: s,
		opts:     opts,
		logger:   logger,
	}
	srv.router = srv.routes()

	return srv
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	limited := r.Group("/")
	if s.opts.RequestsPerSecond > 0 {
		limited.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RequestsPerSecond), max(s.opts.Burst, 1))))
	}

	limited.GET("/", s.handleForm)
	limited.POST("/", s.handleForm)

	v1 := limited.Group("/api/v1")
	{
		v1.GET("/matches", s.handleMatches)
	}

	r.GET("/healthz", s.handleHealth)
	if s.opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(s.opts.MetricsHandler))
	}

	return r
}

type pageData struct {
	Title  string
	Name   string
	Error  string
	Result *neighbour.Result
}

func (s *Server) handleForm(c *gin.Context) {
	name := c.PostForm("name")
	if c.Request.Method == http.MethodGet {
		name = c.Query("name")
	}

	data := pageData{Title: Title, Name: name}

	if name != "" {
		res, err := s.searcher.SearchK(c.Request.Context(), name, s.searcher.K())
		if err != nil {
			data.Error = neighbour.UserMessage(err)
		} else {
			data.Result = res
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMatches(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter 'name' is required"})
		return
	}

	k := s.searcher.K()
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || (s.opts.MaxK > 0 && n > s.opts.MaxK) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter 'k' is out of range"})
			return
		}
		k = n
	}

	res, err := s.searcher.SearchK(c.Request.Context(), name, k)
	if err != nil {
		c.JSON(statusFor(err), errorResponse{Error: neighbour.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.searcher.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps lookup errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case neighbour.IsNotFound(err):
		return http.StatusNotFound
	case neighbour.IsEmbeddingNotFound(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, neighbour.ErrInvalidK):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusServiceUnavailable
	}
}

func rateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
