// Package xdr provides little-endian binary encoding and decoding for
// snapshot headers and float payloads.
//
// All multi-byte values are little-endian. Readers and writers work on a
// fixed byte slice and check bounds on every operation.
package xdr

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read or write operation cannot complete
	// because there isn't enough space in the buffer.
	ErrShortBuffer = errors.New("xdr: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("xdr: negative size")
)

// ByteOrder is the byte order of every encoded value.
var ByteOrder = binary.LittleEndian

// Reader reads little-endian values from a byte slice.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > r.Len() {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.Len() < 2 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Len() < 4 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.Len() < 8 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// Writer writes little-endian values into a byte slice.
type Writer struct {
	data []byte
	pos  int
}

// NewWriter creates a Writer over a byte slice.
func NewWriter(data []byte) *Writer {
	return &Writer{data: data}
}

// Len returns the number of bytes that can still be written.
func (w *Writer) Len() int {
	if w.pos >= len(w.data) {
		return 0
	}
	return len(w.data) - w.pos
}

// Pos returns the current write position.
func (w *Writer) Pos() int {
	return w.pos
}

// Bytes returns the written portion of the buffer.
func (w *Writer) Bytes() []byte {
	return w.data[:w.pos]
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	if w.pos >= len(w.data) {
		return ErrShortBuffer
	}
	w.data[w.pos] = b
	w.pos++
	return nil
}

// WriteBytes writes b verbatim.
func (w *Writer) WriteBytes(b []byte) error {
	if w.Len() < len(b) {
		return ErrShortBuffer
	}
	copy(w.data[w.pos:], b)
	w.pos += len(b)
	return nil
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	if w.Len() < 2 {
		return ErrShortBuffer
	}
	ByteOrder.PutUint16(w.data[w.pos:], v)
	w.pos += 2
	return nil
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	if w.Len() < 4 {
		return ErrShortBuffer
	}
	ByteOrder.PutUint32(w.data[w.pos:], v)
	w.pos += 4
	return nil
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	if w.Len() < 8 {
		return ErrShortBuffer
	}
	ByteOrder.PutUint64(w.data[w.pos:], v)
	w.pos += 8
	return nil
}

// EncodeFloat32s stores src into dst. dst must hold at least 4*len(src)
// bytes.
func EncodeFloat32s(dst []byte, src []float32) {
	_ = dst[:4*len(src)]
	for i, v := range src {
		ByteOrder.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

// DecodeFloat32s loads len(dst) values from src. src must hold at least
// 4*len(dst) bytes.
func DecodeFloat32s(dst []float32, src []byte) {
	_ = src[:4*len(dst)]
	for i := range dst {
		dst[i] = math.Float32frombits(ByteOrder.Uint32(src[4*i:]))
	}
}
