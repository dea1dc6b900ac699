// Package compression provides the block codecs used for snapshot payloads.
//
// Both codecs compress a whole byte block in memory and decompress into a
// buffer of known size; a payload whose decompressed length differs from
// the expected size is reported as corrupted.
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Codec errors
var (
	ErrCorrupted = errors.New("compression: corrupted data")
	ErrLevel     = errors.New("compression: invalid compression level")
)

// Level is a compression level. Valid zlib levels are -2 to 9:
//   - -2: Huffman-only compression (klauspost extension)
//   - -1: Default compression
//   - 0: No compression (store)
//   - 1: Best speed
//   - 9: Best compression
//
// Zstandard maps the same range onto its four speed presets.
type Level int

// Standard compression levels
const (
	LevelHuffmanOnly Level = -2
	LevelDefault     Level = -1
	LevelNone        Level = 0
	LevelBestSpeed   Level = 1
	LevelBestSize    Level = 9
)

// Valid reports whether l is in range.
func (l Level) Valid() bool {
	return l >= LevelHuffmanOnly && l <= LevelBestSize
}

// zlibWriterPoolItem pairs a default-level writer with its output buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// ZlibCompress compresses src with zlib at the given level.
func ZlibCompress(src []byte, level Level) ([]byte, error) {
	if !level.Valid() {
		return nil, ErrLevel
	}
	if level == LevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		defer zlibWriterPool.Put(item)
		item.buf.Reset()
		item.writer.Reset(item.buf)
		if err := writeAndClose(item.writer, src); err != nil {
			return nil, err
		}
		return bytes.Clone(item.buf.Bytes()), nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}
	if err := writeAndClose(w, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAndClose(w io.WriteCloser, src []byte) error {
	if _, err := w.Write(src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// zlibReaderPoolItem keeps a reader and its source for reuse.
type zlibReaderPoolItem struct {
	reader io.ReadCloser
	src    *bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any {
		return &zlibReaderPoolItem{src: bytes.NewReader(nil)}
	},
}

// ZlibDecompress decompresses src into dst. The decompressed stream must be
// exactly len(dst) bytes long.
func ZlibDecompress(dst, src []byte) error {
	item := zlibReaderPool.Get().(*zlibReaderPoolItem)
	defer zlibReaderPool.Put(item)
	item.src.Reset(src)

	if item.reader == nil {
		r, err := zlib.NewReader(item.src)
		if err != nil {
			return ErrCorrupted
		}
		item.reader = r
	} else if err := item.reader.(zlib.Resetter).Reset(item.src, nil); err != nil {
		return ErrCorrupted
	}

	if _, err := io.ReadFull(item.reader, dst); err != nil {
		return ErrCorrupted
	}
	// The stream must end here; reaching EOF also verifies the checksum.
	var extra [1]byte
	if n, err := item.reader.Read(extra[:]); n != 0 || err != io.EOF {
		return ErrCorrupted
	}
	return nil
}
