// Package dataset holds the tabular horse dataset: one Record per row,
// addressed by row position, with exact-match lookups by name and id.
//
// # Formats
//
// Files are decoded by extension. The table format is the innermost
// extension and may be wrapped in one compression layer:
//
//	horses.csv            plain CSV with a header row
//	horses.csv.gz         gzip (klauspost/compress)
//	horses.csv.zst        zstd (klauspost/compress)
//	horses.csv.lz4        lz4 frame (pierrec/lz4)
//	horses.parquet        parquet (parquet-go); compression is internal
//
// The table must contain the columns horse_id and horse_name. All other
// columns are kept as auxiliary attributes in file order.
package dataset
