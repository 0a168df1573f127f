package dataset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	// ColumnID is the unique horse identifier column.
	ColumnID = "horse_id"
	// ColumnName is the display name column. Names are not unique.
	ColumnName = "horse_name"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("dataset: missing required column")

	// ErrRaggedRow is returned when a row does not match the header width.
	ErrRaggedRow = errors.New("dataset: row width does not match header")
)

// Attribute is a named auxiliary value of a record.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one row of the dataset.
type Record struct {
	// Position is the row position after reset-of-index (file order, 0-based).
	Position   int         `json:"position"`
	HorseID    string      `json:"horse_id"`
	HorseName  string      `json:"horse_name"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Attribute returns the value of the named auxiliary column.
func (r Record) Attribute(name string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Dataset is an immutable, position-addressed table of records.
// Safe for concurrent reads.
type Dataset struct {
	columns []string
	records []Record

	// names maps horse_name to the positions carrying it.
	names map[string]*roaring.Bitmap
	// ids maps horse_id to its first position.
	ids map[string]int
}

// New builds a Dataset from a header and rows of string cells.
func New(columns []string, rows [][]string) (*Dataset, error) {
	idCol := slices.Index(columns, ColumnID)
	if idCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnID)
	}
	nameCol := slices.Index(columns, ColumnName)
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnName)
	}

	d := &Dataset{
		columns: slices.Clone(columns),
		records: make([]Record, 0, len(rows)),
		names:   make(map[string]*roaring.Bitmap),
		ids:     make(map[string]int, len(rows)),
	}

	for pos, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrRaggedRow, pos, len(row), len(columns))
		}

		rec := Record{
			Position:   pos,
			HorseID:    row[idCol],
			HorseName:  row[nameCol],
			Attributes: make([]Attribute, 0, len(columns)-2),
		}
		for i, col := range columns {
			if i == idCol || i == nameCol {
				continue
			}
			rec.Attributes = append(rec.Attributes, Attribute{Name: col, Value: row[i]})
		}
		d.records = append(d.records, rec)

		bm, ok := d.names[rec.HorseName]
		if !ok {
			bm = roaring.New()
			d.names[rec.HorseName] = bm
		}
		bm.Add(uint32(pos))

		if _, ok := d.ids[rec.HorseID]; !ok {
			d.ids[rec.HorseID] = pos
		}
	}

	return d, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Columns returns the header in file order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// At returns the record at position pos.
func (d *Dataset) At(pos int) (Record, bool) {
	if pos < 0 || pos >= len(d.records) {
		return Record{}, false
	}
	return d.records[pos], true
}

// LookupName returns the first record (lowest position) whose name equals
// name exactly, and how many records share that name.
func (d *Dataset) LookupName(name string) (Record, int, bool) {
	bm, ok := d.names[name]
	if !ok || bm.IsEmpty() {
		return Record{}, 0, false
	}
	return d.records[bm.Minimum()], int(bm.GetCardinality()), true
}

// PositionOf returns the first position whose horse_id equals id.
func (d *Dataset) PositionOf(id string) (int, bool) {
	pos, ok := d.ids[id]
	return pos, ok
}

// IDs returns the horse ids in position order.
func (d *Dataset) IDs() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.HorseID
	}
	return out
}
