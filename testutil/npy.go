package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// WriteNPY writes rows as a little-endian float32 C-order array in NumPy
// format version 1.0. All rows must have the same length.
func WriteNPY(w io.Writer, rows [][]float32) error {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	for i, r := range rows {
		if len(r) != dim {
			return fmt.Errorf("testutil: row %d has %d values, want %d", i, len(r), dim)
		}
	}
	return writeNPY(w, "<f4", false, []int{len(rows), dim}, func(buf *bytes.Buffer) {
		for _, r := range rows {
			for _, v := range r {
				_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(v))
			}
		}
	})
}

// WriteNPYFloat64 writes rows as a float64 array, optionally column-major.
func WriteNPYFloat64(w io.Writer, rows [][]float64, fortran bool) error {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	return writeNPY(w, "<f8", fortran, []int{len(rows), dim}, func(buf *bytes.Buffer) {
		if fortran {
			for c := 0; c < dim; c++ {
				for r := range rows {
					_ = binary.Write(buf, binary.LittleEndian, rows[r][c])
				}
			}
			return
		}
		for _, r := range rows {
			for _, v := range r {
				_ = binary.Write(buf, binary.LittleEndian, v)
			}
		}
	})
}

// WriteNPYShape writes a float32 array with an arbitrary shape header.
func WriteNPYShape(w io.Writer, shape []int, data []float32) error {
	return writeNPY(w, "<f4", false, shape, func(buf *bytes.Buffer) {
		for _, v := range data {
			_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(v))
		}
	})
}

func writeNPY(w io.Writer, descr string, fortran bool, shape []int, body func(*bytes.Buffer)) error {
	dims := make([]string, len(shape))
	for i, s := range shape {
		dims[i] = fmt.Sprint(s)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}

	order := "False"
	if fortran {
		order = "True"
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", descr, order, shapeStr)
	// magic(6) + version(2) + header length(2) + header + '\n' is padded to 64 bytes.
	total := 10 + len(header) + 1
	if pad := (64 - total%64) % 64; pad > 0 {
		header += strings.Repeat(" ", pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	body(&buf)

	_, err := w.Write(buf.Bytes())
	return err
}
