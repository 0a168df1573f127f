package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/neighbour/index/hnsw"
)

// Default artifact file names.
const (
	DatasetFile    = "data_with_attributes_reduced.csv.gz"
	EmbeddingsFile = "horse_embeddings.npy"
	ModelFile      = "nn_model.hnsw"
)

// Horse is one synthetic dataset row.
type Horse struct {
	ID    string
	Name  string
	Sire  string
	Color string
}

// Fixture describes a consistent set of artifacts.
type Fixture struct {
	Horses  []Horse
	Vectors [][]float32
}

// ABC is the three-horse fixture with ids a, b, c and vectors
// [0,0], [1,0], [5,5].
func ABC() Fixture {
	return Fixture{
		Horses: []Horse{
			{ID: "a", Name: "Alpha", Sire: "Galileo", Color: "bay"},
			{ID: "b", Name: "Bravo", Sire: "Dubawi", Color: "chestnut"},
			{ID: "c", Name: "Charlie", Sire: "Frankel", Color: "grey"},
		},
		Vectors: [][]float32{{0, 0}, {1, 0}, {5, 5}},
	}
}

// DatasetCSV renders the horses as CSV with a header row.
func (f Fixture) DatasetCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"horse_id", "horse_name", "sire", "color"})
	for _, h := range f.Horses {
		_ = w.Write([]string{h.ID, h.Name, h.Sire, h.Color})
	}
	w.Flush()
	return buf.Bytes()
}

// DatasetGzip renders the gzip-compressed CSV.
func (f Fixture) DatasetGzip() ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(f.DatasetCSV()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EmbeddingsNPY renders the vectors as a float32 .npy array.
func (f Fixture) EmbeddingsNPY() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteNPY(&buf, f.Vectors); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ModelHNSW fits and exports an HNSW graph over the vectors.
func (f Fixture) ModelHNSW() ([]byte, error) {
	h, err := hnsw.Build(f.Vectors)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := h.Export(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Files renders all three artifacts keyed by their default file names.
func (f Fixture) Files() (map[string][]byte, error) {
	ds, err := f.DatasetGzip()
	if err != nil {
		return nil, err
	}
	emb, err := f.EmbeddingsNPY()
	if err != nil {
		return nil, err
	}
	model, err := f.ModelHNSW()
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		DatasetFile:    ds,
		EmbeddingsFile: emb,
		ModelFile:      model,
	}, nil
}

// WriteDir writes all artifacts into dir and returns their paths by name.
func (f Fixture) WriteDir(dir string) (map[string]string, error) {
	files, err := f.Files()
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(files))
	for name, data := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			return nil, err
		}
		paths[name] = p
	}
	return paths, nil
}
