// Package snapshot stores a deep.Image as a compact binary blob.
//
// Snapshots let pipeline stages hand buffers to each other, and let tests
// keep fixtures, without going through an image file format. A snapshot
// holds the shape and the raw float32 channel values of one image; it has
// no channel names and no color metadata.
//
// Layout, all integers little-endian:
//
//	offset  size  field
//	0       4     magic "DIMG"
//	4       1     version (1)
//	5       1     codec
//	6       2     reserved, zero
//	8       4     width
//	12      4     height
//	16      4     depth
//	20      8     payload length in bytes
//	28      ...   payload
//
// The uncompressed payload is the image storage in pixel order, four bytes
// per value. Compressed codecs first split the payload into byte planes and
// delta-encode it, then compress the result.
package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mrjoshuak/go-deepimage/compression"
	"github.com/mrjoshuak/go-deepimage/deep"
	"github.com/mrjoshuak/go-deepimage/internal/bufpool"
	"github.com/mrjoshuak/go-deepimage/internal/interleave"
	"github.com/mrjoshuak/go-deepimage/internal/predictor"
	"github.com/mrjoshuak/go-deepimage/internal/xdr"
)

// Snapshot errors
var (
	ErrNilImage   = errors.New("snapshot: nil image")
	ErrBadMagic   = errors.New("snapshot: not a snapshot")
	ErrVersion    = errors.New("snapshot: unsupported version")
	ErrCodec      = errors.New("snapshot: unknown codec")
	ErrTooLarge   = errors.New("snapshot: image too large")
	ErrCorrupt    = errors.New("snapshot: corrupted payload")
	ErrDimensions = errors.New("snapshot: dimension out of range")
)

const (
	// HeaderSize is the encoded size of a snapshot header.
	HeaderSize = 28

	magic   = "DIMG"
	version = 1
)

// MaxValues bounds the number of float values Decode accepts, protecting
// against hostile headers. The default allows 4 GiB of channel data.
var MaxValues uint64 = 1 << 30

// Codec selects how the payload is compressed.
type Codec uint8

// Codecs
const (
	CodecNone Codec = iota
	CodecZlib
	CodecZstd
)

var codecNames = [...]string{
	CodecNone: "none",
	CodecZlib: "zlib",
	CodecZstd: "zstd",
}

func (c Codec) String() string {
	if c.valid() {
		return codecNames[c]
	}
	return fmt.Sprintf("Codec(%d)", uint8(c))
}

func (c Codec) valid() bool {
	return int(c) < len(codecNames)
}

// ParseCodec returns the codec with the given name.
func ParseCodec(name string) (Codec, error) {
	for c, n := range codecNames {
		if n == name {
			return Codec(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrCodec, name)
}

// Options configures encoding.
type Options struct {
	Codec Codec
	Level compression.Level
}

// DefaultOptions compresses with zstd at its default level.
func DefaultOptions() Options {
	return Options{Codec: CodecZstd, Level: compression.LevelDefault}
}

// Header describes an encoded snapshot.
type Header struct {
	Shape       deep.Shape
	Codec       Codec
	PayloadSize uint64
}

// rawSize returns the uncompressed payload size in bytes.
func (h Header) rawSize() uint64 {
	return 4 * uint64(h.Shape.Width) * uint64(h.Shape.Height) * uint64(h.Shape.Depth)
}

func (h Header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	w := xdr.NewWriter(buf)
	w.WriteBytes([]byte(magic))
	w.WriteByte(version)
	w.WriteByte(byte(h.Codec))
	w.WriteUint16(0)
	w.WriteUint32(uint32(h.Shape.Width))
	w.WriteUint32(uint32(h.Shape.Height))
	w.WriteUint32(uint32(h.Shape.Depth))
	w.WriteUint64(h.PayloadSize)
	return w.Bytes()
}

func parseHeader(buf []byte) (Header, error) {
	var h Header
	r := xdr.NewReader(buf)

	m, err := r.ReadBytes(len(magic))
	if err != nil || string(m) != magic {
		return h, ErrBadMagic
	}
	v, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	if v != version {
		return h, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	c, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.Codec = Codec(c)
	if !h.Codec.valid() {
		return h, fmt.Errorf("%w: %d", ErrCodec, c)
	}
	if _, err := r.ReadUint16(); err != nil {
		return h, err
	}

	var dims [3]uint32
	for i := range dims {
		if dims[i], err = r.ReadUint32(); err != nil {
			return h, err
		}
		if dims[i] > math.MaxInt32 {
			return h, fmt.Errorf("%w: %d", ErrDimensions, dims[i])
		}
	}
	h.Shape = deep.Shape{Width: int(dims[0]), Height: int(dims[1]), Depth: int(dims[2])}

	// Multiply step by step so a hostile header cannot overflow the check.
	values := uint64(dims[0])
	for _, d := range dims[1:] {
		if d != 0 && values > MaxValues/uint64(d) {
			return h, fmt.Errorf("%w: %s", ErrTooLarge, h.Shape)
		}
		values *= uint64(d)
	}
	if values > MaxValues {
		return h, fmt.Errorf("%w: %s", ErrTooLarge, h.Shape)
	}

	if h.PayloadSize, err = r.ReadUint64(); err != nil {
		return h, err
	}
	if h.Codec == CodecNone && h.PayloadSize != h.rawSize() {
		return h, fmt.Errorf("%w: payload is %d bytes, want %d", ErrCorrupt, h.PayloadSize, h.rawSize())
	}
	// Incompressible data grows by a few bytes per block at most.
	if h.PayloadSize > 2*h.rawSize()+1024 {
		return h, fmt.Errorf("%w: payload is %d bytes for %s", ErrCorrupt, h.PayloadSize, h.Shape)
	}
	return h, nil
}

// Encode writes img to w.
func Encode(w io.Writer, img *deep.Image, opts Options) error {
	if img == nil {
		return ErrNilImage
	}
	if !opts.Codec.valid() {
		return fmt.Errorf("%w: %d", ErrCodec, uint8(opts.Codec))
	}
	s := img.Shape()
	for _, d := range []int{s.Width, s.Height, s.Depth} {
		if d > math.MaxInt32 {
			return fmt.Errorf("%w: %s", ErrDimensions, s)
		}
	}

	raw := bufpool.Default.Get(4 * len(img.Data()))
	defer bufpool.Default.Put(raw)
	xdr.EncodeFloat32s(raw, img.Data())

	payload := raw
	if opts.Codec != CodecNone {
		var err error
		if payload, err = compressPayload(raw, opts); err != nil {
			return err
		}
	}

	h := Header{Shape: s, Codec: opts.Codec, PayloadSize: uint64(len(payload))}
	if _, err := w.Write(h.marshal()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func compressPayload(raw []byte, opts Options) ([]byte, error) {
	planes := bufpool.Default.Get(len(raw))
	defer bufpool.Default.Put(planes)
	interleave.Interleave(planes, raw, 4)
	predictor.Encode(planes)

	switch opts.Codec {
	case CodecZlib:
		return compression.ZlibCompress(planes, opts.Level)
	default:
		return compression.ZstdCompress(planes, opts.Level)
	}
}

// ReadHeader reads and validates a snapshot header, leaving r positioned at
// the payload.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, ErrBadMagic
		}
		return Header{}, err
	}
	return parseHeader(buf)
}

// Decode reads one snapshot from r.
func Decode(r io.Reader) (*deep.Image, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	payload, err := readPayload(r, h.PayloadSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer bufpool.Default.Put(payload)

	raw := payload
	if h.Codec != CodecNone {
		raw = bufpool.Default.Get(int(h.rawSize()))
		defer bufpool.Default.Put(raw)
		if err := decompressPayload(raw, payload, h); err != nil {
			return nil, err
		}
	}

	img := deep.New(h.Shape.Width, h.Shape.Height, h.Shape.Depth)
	xdr.DecodeFloat32s(img.Data(), raw)
	return img, nil
}

// payloadChunk is the largest payload Decode allocates before seeing the
// bytes. Longer payloads are buffered as they arrive, so a header claiming
// more data than the stream holds costs only what was actually read.
const payloadChunk = 1 << 20

func readPayload(r io.Reader, size uint64) ([]byte, error) {
	if size <= payloadChunk {
		buf := bufpool.Default.Get(int(size))
		if _, err := io.ReadFull(r, buf); err != nil {
			bufpool.Default.Put(buf)
			return nil, err
		}
		return buf, nil
	}
	var buf bytes.Buffer
	buf.Grow(payloadChunk)
	n, err := buf.ReadFrom(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if uint64(n) != size {
		return nil, io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

func decompressPayload(raw, payload []byte, h Header) error {
	planes := bufpool.Default.Get(len(raw))
	defer bufpool.Default.Put(planes)

	var err error
	switch h.Codec {
	case CodecZlib:
		err = compression.ZlibDecompress(planes, payload)
	default:
		err = compression.ZstdDecompress(planes, payload)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, h.Codec, err)
	}

	predictor.Decode(planes)
	interleave.Deinterleave(raw, planes, 4)
	return nil
}

// WriteFile encodes img into the named file, replacing it if it exists.
func WriteFile(name string, img *deep.Image, opts Options) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, img, opts); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the named snapshot file.
func ReadFile(name string) (*deep.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// ReadFileHeader reads only the header of the named snapshot file.
func ReadFileHeader(name string) (Header, error) {
	f, err := os.Open(name)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	h, err := ReadHeader(f)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", name, err)
	}
	return h, nil
}
