package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/neighbour/internal/mmap"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("dataset: unsupported format")

// Format is the table encoding of a dataset file.
type Format uint8

const (
	FormatCSV Format = iota
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// Compression is the outer compression layer of a dataset file.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// DetectFormat derives format and compression from a file name.
func DetectFormat(name string) (Format, Compression, error) {
	base := strings.ToLower(filepath.Base(name))

	comp := CompressionNone
	switch ext := filepath.Ext(base); ext {
	case ".gz", ".gzip":
		comp = CompressionGzip
	case ".zst", ".zstd":
		comp = CompressionZstd
	case ".lz4":
		comp = CompressionLZ4
	}
	if comp != CompressionNone {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	switch filepath.Ext(base) {
	case ".csv":
		return FormatCSV, comp, nil
	case ".parquet":
		if comp != CompressionNone {
			return 0, 0, fmt.Errorf("%w: parquet does not take an outer %s layer: %s", ErrUnsupportedFormat, comp, name)
		}
		return FormatParquet, comp, nil
	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// ReadFile memory-maps path and decodes it according to its extension.
func ReadFile(path string) (*Dataset, error) {
	format, comp, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	return Decode(bytes.NewReader(m.Bytes()), format, comp)
}

// Decode reads a dataset from r. Uncompressed parquet input that is a
// *bytes.Reader is read in place; anything else is buffered to satisfy
// io.ReaderAt.
func Decode(r io.Reader, format Format, comp Compression) (*Dataset, error) {
	if br, ok := r.(*bytes.Reader); ok && format == FormatParquet && comp == CompressionNone {
		return ReadParquet(br, br.Size())
	}

	rc, err := decompress(r, comp)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(rc)
	case FormatParquet:
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return ReadParquet(bytes.NewReader(data), int64(len(data)))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func decompress(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("dataset: gzip: %w", err)
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("dataset: zstd: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedFormat, comp)
	}
}

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset: csv: empty input")
		}
		return nil, fmt.Errorf("dataset: csv header: %w", err)
	}
	// Tolerate a UTF-8 BOM written by spreadsheet exports.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: csv: %w", err)
	}
	return New(header, rows)
}

// ReadParquet reads every row group of a flat parquet file. Leaf columns
// become dataset columns; values are rendered as strings.
func ReadParquet(r io.ReaderAt, size int64) (*Dataset, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("dataset: parquet: %w", err)
	}

	paths := pf.Schema().Columns()
	columns := make([]string, len(paths))
	for i, p := range paths {
		columns[i] = strings.Join(p, ".")
	}

	var out [][]string
	buf := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				cells := make([]string, len(columns))
				for _, v := range row {
					if c := v.Column(); c >= 0 && c < len(cells) {
						cells[c] = valueString(v)
					}
				}
				out = append(out, cells)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("dataset: parquet rows: %w", err)
			}
		}
		_ = rows.Close()
	}

	return New(columns, out)
}

func valueString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
