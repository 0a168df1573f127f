package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neighbour"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/loader"
	"github.com/hupe1980/neighbour/metric"
	"github.com/hupe1980/neighbour/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSearcher struct {
	res   *neighbour.Result
	err   error
	ready bool
	gotK  int
}

func (s *stubSearcher) SearchK(_ context.Context, _ string, k int) (*neighbour.Result, error) {
	s.gotK = k
	return s.res, s.err
}

func (s *stubSearcher) K() int      { return neighbour.DefaultK }
func (s *stubSearcher) Ready() bool { return s.ready }

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newEngineServer(t *testing.T, optFns ...func(o *Options)) (*Server, *neighbour.Engine) {
	t.Helper()
	files, err := testutil.ABC().Files()
	require.NoError(t, err)
	artifacts := testutil.NewArtifactServer(files)
	t.Cleanup(artifacts.Close)

	eng := neighbour.Open(loader.Spec{
		DataDir:    t.TempDir(),
		Dataset:    loader.Artifact{URL: artifacts.URL(testutil.DatasetFile), File: testutil.DatasetFile},
		Embeddings: loader.Artifact{URL: artifacts.URL(testutil.EmbeddingsFile), File: testutil.EmbeddingsFile},
		Model:      loader.Artifact{URL: artifacts.URL(testutil.ModelFile), File: testutil.ModelFile},
		IndexKind:  index.KindHNSW,
	})
	return New(eng, optFns...), eng
}

func TestForm_Empty(t *testing.T) {
	srv := New(&stubSearcher{})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), Title)
	assert.Contains(t, rec.Body.String(), "Enter your horse name:")
	assert.NotContains(t, rec.Body.String(), "Searched Horse")
}

func TestForm_PostRendersMatches(t *testing.T) {
	srv, _ := newEngineServer(t)

	form := url.Values{"name": {"Alpha"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, srv.Handler(), req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Searched Horse")
	assert.Contains(t, body, "Top 3 Closest Matches")
	assert.Contains(t, body, `href="https://photofinish.live/horses/a"`)
	assert.Contains(t, body, "Similarity Score</strong>: 0.000")
	assert.Contains(t, body, "Galileo")
}

func TestForm_NotFoundMessage(t *testing.T) {
	srv, _ := newEngineServer(t)

	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/?name=Nobody", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Horse name &#39;Nobody&#39; not found in the dataset.")
}

func TestForm_WhitespaceNameIsSearched(t *testing.T) {
	srv, _ := newEngineServer(t)

	form := url.Values{"name": {"  "}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, srv.Handler(), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Horse name &#39;  &#39; not found in the dataset.")
}

func TestForm_DuplicateNote(t *testing.T) {
	srv := New(&stubSearcher{res: &neighbour.Result{DuplicateCount: 2}})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/?name=Twin", nil))
	assert.Contains(t, rec.Body.String(), "2 horses share this name")
}

func TestAPI_Matches(t *testing.T) {
	srv, eng := newEngineServer(t)

	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/v1/matches?name=Alpha&k=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res neighbour.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "a", res.Matches[0].HorseID)
	assert.Equal(t, "b", res.Matches[1].HorseID)
	assert.Equal(t, "1.000", res.Matches[1].Score)
	assert.Equal(t, "https://photofinish.live/horses/b", res.Matches[1].URL)
	assert.True(t, eng.Ready())
}

func TestAPI_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"missing name", "/api/v1/matches", nil, http.StatusBadRequest},
		{"bad k", "/api/v1/matches?name=x&k=zero", nil, http.StatusBadRequest},
		{"k too large", "/api/v1/matches?name=x&k=1000", nil, http.StatusBadRequest},
		{"not found", "/api/v1/matches?name=x", &neighbour.NotFoundError{Name: "x"}, http.StatusNotFound},
		{"embedding missing", "/api/v1/matches?name=x", &neighbour.EmbeddingNotFoundError{Name: "x", HorseID: "1"}, http.StatusUnprocessableEntity},
		{"fetch failure", "/api/v1/matches?name=x", &neighbour.RemoteFetchError{URL: "u", StatusCode: 404}, http.StatusServiceUnavailable},
		{"unavailable", "/api/v1/matches?name=x", neighbour.ErrUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&stubSearcher{err: tt.err, res: &neighbour.Result{}})
			rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAPI_ErrorBody(t *testing.T) {
	srv := New(&stubSearcher{err: &neighbour.RemoteFetchError{URL: "https://host/x.npy", StatusCode: 500}})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/v1/matches?name=x", nil))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to download file from https://host/x.npy. HTTP Status Code: 500", body.Error)
}

func TestAPI_DefaultK(t *testing.T) {
	s := &stubSearcher{res: &neighbour.Result{}}
	srv := New(s)
	do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/v1/matches?name=x", nil))
	assert.Equal(t, neighbour.DefaultK, s.gotK)
}

func TestHealthz(t *testing.T) {
	s := &stubSearcher{}
	srv := New(s)

	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.ready = true
	rec = do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv := New(&stubSearcher{res: &neighbour.Result{}}, func(o *Options) {
		o.RequestsPerSecond = 0.001
		o.Burst = 1
	})

	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/v1/matches?name=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/v1/matches?name=x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health checks are not limited.
	rec = do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := metric.NewPrometheusCollector(reg)
	mc.RecordSearch(5, 0, nil)

	srv := New(&stubSearcher{}, func(o *Options) {
		o.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	})

	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "neighbour_operations_total")
}
