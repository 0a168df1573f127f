// Package embedding loads the precomputed horse embedding array and aligns
// it with the dataset.
//
// The array artifact is a 2-D NumPy .npy file (float32 or float64,
// C or Fortran order). Row i belongs to the dataset record at position i.
// Align turns that positional coupling into an explicit horse_id -> vector
// table once at load time.
package embedding

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sbinet/npyio/npy"

	"github.com/hupe1980/neighbour/internal/mmap"
)

var (
	// ErrShape is returned for arrays that are not 2-D with non-zero width.
	ErrShape = errors.New("embedding: array must be 2-D with at least one column")

	// ErrDType is returned for element types other than float32/float64.
	ErrDType = errors.New("embedding: unsupported dtype")
)

// Matrix is a dense row-major float32 array.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// Row returns row i as a sub-slice of Data.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim : (i+1)*m.Dim]
}

// ReadFile memory-maps path and decodes it with ReadNPY.
func ReadFile(path string) (*Matrix, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadNPY(bytes.NewReader(f.Bytes()))
}

// ReadNPY decodes a 2-D float array in NumPy format.
func ReadNPY(r io.Reader) (*Matrix, error) {
	nr, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("embedding: npy header: %w", err)
	}

	shape := nr.Header.Descr.Shape
	if len(shape) != 2 || shape[1] <= 0 || shape[0] < 0 {
		return nil, fmt.Errorf("%w: shape %v", ErrShape, shape)
	}
	rows, dim := shape[0], shape[1]

	var data []float32
	switch dt := nr.Header.Descr.Type; dt {
	case "<f4", "|f4", "f4":
		if err := nr.Read(&data); err != nil {
			return nil, fmt.Errorf("embedding: npy data: %w", err)
		}
	case "<f8", "|f8", "f8":
		var wide []float64
		if err := nr.Read(&wide); err != nil {
			return nil, fmt.Errorf("embedding: npy data: %w", err)
		}
		data = make([]float32, len(wide))
		for i, v := range wide {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrDType, dt)
	}

	if len(data) != rows*dim {
		return nil, fmt.Errorf("embedding: npy data has %d values, shape %v needs %d", len(data), shape, rows*dim)
	}

	if nr.Header.Descr.Fortran {
		data = transpose(data, rows, dim)
	}

	return &Matrix{Rows: rows, Dim: dim, Data: data}, nil
}

// transpose converts column-major data to row-major.
func transpose(src []float32, rows, dim int) []float32 {
	dst := make([]float32, len(src))
	for r := 0; r < rows; r++ {
		for c := 0; c < dim; c++ {
			dst[r*dim+c] = src[c*rows+r]
		}
	}
	return dst
}

// Table holds one vector per dataset position, keyed by horse_id.
type Table struct {
	dim     int
	vectors [][]float32
	byID    map[string][]float32
}

// Align pairs ids (dataset order) with the rows of m. Only the first
// min(len(ids), m.Rows) positions receive a vector; for repeated ids the
// first position wins. Surplus rows of m are dropped.
func Align(ids []string, m *Matrix) *Table {
	n := min(len(ids), m.Rows)

	t := &Table{
		dim:     m.Dim,
		vectors: make([][]float32, n),
		byID:    make(map[string][]float32, n),
	}
	for pos := 0; pos < n; pos++ {
		vec := m.Row(pos)
		t.vectors[pos] = vec
		if _, ok := t.byID[ids[pos]]; !ok {
			t.byID[ids[pos]] = vec
		}
	}
	return t
}

// Dim returns the vector width.
func (t *Table) Dim() int { return t.dim }

// Len returns the number of aligned vectors.
func (t *Table) Len() int { return len(t.vectors) }

// Vector returns the vector of horse id.
func (t *Table) Vector(id string) ([]float32, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// At returns the vector at dataset position pos.
func (t *Table) At(pos int) ([]float32, bool) {
	if pos < 0 || pos >= len(t.vectors) {
		return nil, false
	}
	return t.vectors[pos], true
}

// Vectors returns the aligned vectors in position order. The slice must
// not be modified.
func (t *Table) Vectors() [][]float32 { return t.vectors }
