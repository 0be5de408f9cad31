package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream compression of a packed archive.
type Compression uint8

const (
	// Gzip compresses with gzip (the .tgz format).
	Gzip Compression = iota
	// LZ4 compresses with the LZ4 frame format (fast, larger output).
	LZ4
	// Zstd compresses with Zstandard (better ratio).
	Zstd
	// None writes a plain tar stream.
	None
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newWriter(w io.Writer, c Compression, level int) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		return gzip.NewWriterLevel(w, level)
	case LZ4:
		zw := lz4.NewWriter(w)
		if level > 0 {
			if err := zw.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + level)))); err != nil {
				return nil, err
			}
		}
		return zw, nil
	case Zstd:
		el := zstd.SpeedDefault
		if level > 0 {
			el = zstd.EncoderLevelFromZstd(level)
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(el))
	case None:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression %v", c)
	}
}

// Detect peeks at the stream header and reports its compression. The returned
// reader replays the peeked bytes.
func Detect(r io.Reader) (Compression, io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return None, nil, err
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip, br, nil
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4, br, nil
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd, br, nil
	default:
		return None, br, nil
	}
}

func newReader(r io.Reader) (io.ReadCloser, error) {
	c, br, err := Detect(r)
	if err != nil {
		return nil, err
	}
	switch c {
	case Gzip:
		return gzip.NewReader(br)
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}
