package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// ArtifactServer is an httptest.Server serving a fixed set of files by
// base name and counting requests per file. Unknown names get 404.
type ArtifactServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

// NewArtifactServer starts a server for files.
func NewArtifactServer(files map[string][]byte) *ArtifactServer {
	s := &ArtifactServer{
		files: files,
		hits:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *ArtifactServer) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.Lock()
	s.hits[name]++
	data, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

// URL returns the absolute URL of name.
func (s *ArtifactServer) URL(name string) string {
	return s.Server.URL + "/" + name
}

// Hits returns how many requests name received.
func (s *ArtifactServer) Hits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

// TotalHits returns the number of requests across all names.
func (s *ArtifactServer) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}
