// Package mmap provides read-only memory-mapped file access.
//
// Downloaded artifacts are mapped instead of read into a heap buffer; the
// decoders consume the mapping through Bytes or as an io.ReaderAt.
//
//	m, err := mmap.Open("horse_embeddings.npy")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) via golang.org/x/sys/unix; Windows uses
// CreateFileMapping/MapViewOfFile.
package mmap
