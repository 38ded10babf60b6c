// Package source opens base data files, transparently decompressing gzip,
// zstd and bzip2 archives.
package source

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression names the container a file was stored in.
type Compression string

const (
	None  Compression = "none"
	Gzip  Compression = "gzip"
	Zstd  Compression = "zstd"
	Bzip2 Compression = "bzip2"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Magic = []byte("BZh")
)

// Sniff identifies the compression of raw from its leading bytes.
func Sniff(raw []byte) Compression {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		return Gzip
	case bytes.HasPrefix(raw, zstdMagic):
		return Zstd
	case bytes.HasPrefix(raw, bzip2Magic):
		return Bzip2
	default:
		return None
	}
}

// Source is the fully decompressed content of one file.
type Source struct {
	Name        string
	Compression Compression
	data        []byte
}

// Bytes returns the decompressed content. Callers must not modify it.
func (s *Source) Bytes() []byte { return s.data }

// Len returns the decompressed length.
func (s *Source) Len() int { return len(s.data) }

// Reader returns a new seekable reader over the decompressed content.
func (s *Source) Reader() io.ReadSeeker { return bytes.NewReader(s.data) }

// Open reads and decompresses the file at path.
func Open(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(filepath.Base(path), raw)
}

// FromBytes decompresses raw if it carries a known compression signature.
// Uncompressed input is used as is.
func FromBytes(name string, raw []byte) (*Source, error) {
	c := Sniff(raw)
	data, err := decompress(c, raw)
	if err != nil {
		return nil, fmt.Errorf("source %s: %s: %w", name, c, err)
	}
	return &Source{Name: name, Compression: c, data: data}, nil
}

func decompress(c Compression, raw []byte) ([]byte, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Bzip2:
		return io.ReadAll(bzip2.NewReader(bytes.NewReader(raw)))
	default:
		return raw, nil
	}
}
