package snapshot

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mrjoshuak/go-deepimage/compression"
	"github.com/mrjoshuak/go-deepimage/deep"
	"github.com/mrjoshuak/go-deepimage/internal/xdr"
)

// histogramImage returns an image with smooth values and a count channel,
// resembling denoiser input.
func histogramImage(width, height, depth int) *deep.Image {
	img := deep.New(width, height, depth)
	for i, px := range img.Pixels() {
		for c := range px {
			px[c] = float32(math.Sin(float64(i)*0.01+float64(c))) * 100
		}
		if depth > 0 {
			px[depth-1] = 64
		}
	}
	return img
}

var allOptions = []Options{
	{Codec: CodecNone},
	{Codec: CodecZlib, Level: compression.LevelDefault},
	{Codec: CodecZlib, Level: compression.LevelBestSpeed},
	{Codec: CodecZstd, Level: compression.LevelDefault},
	{Codec: CodecZstd, Level: compression.LevelBestSize},
}

func TestRoundTrip(t *testing.T) {
	images := map[string]*deep.Image{
		"histogram":   histogramImage(31, 17, 61),
		"single":      histogramImage(1, 1, 1),
		"zero depth":  deep.New(4, 4, 0),
		"zero width":  deep.New(0, 4, 3),
		"count plane": histogramImage(64, 64, 1),
	}

	special := deep.New(2, 1, 4)
	copy(special.Data(), []float32{
		float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.Copysign(0, -1)),
		math.SmallestNonzeroFloat32, math.MaxFloat32, -1, 1,
	})
	images["special"] = special

	for name, img := range images {
		for _, opts := range allOptions {
			var buf bytes.Buffer
			if err := Encode(&buf, img, opts); err != nil {
				t.Fatalf("%s/%s: Encode() error = %v", name, opts.Codec, err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("%s/%s: Decode() error = %v", name, opts.Codec, err)
			}
			if !got.Equal(img) {
				t.Errorf("%s/%s: round trip changed the image", name, opts.Codec)
			}
			if buf.Len() != 0 {
				t.Errorf("%s/%s: %d bytes left after Decode", name, opts.Codec, buf.Len())
			}
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	img := histogramImage(3, 2, 5)
	var buf bytes.Buffer
	if err := Encode(&buf, img, Options{Codec: CodecNone}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if string(data[:4]) != "DIMG" {
		t.Errorf("magic = %q, want DIMG", data[:4])
	}
	if data[4] != 1 || data[5] != byte(CodecNone) {
		t.Errorf("version, codec = %d, %d", data[4], data[5])
	}
	r := xdr.NewReader(data[8:HeaderSize])
	w, _ := r.ReadUint32()
	h, _ := r.ReadUint32()
	d, _ := r.ReadUint32()
	n, _ := r.ReadUint64()
	if w != 3 || h != 2 || d != 5 || n != 4*3*2*5 {
		t.Errorf("header = %d %d %d %d", w, h, d, n)
	}
	if len(data) != HeaderSize+4*30 {
		t.Errorf("size = %d, want %d", len(data), HeaderSize+4*30)
	}

	// Uncompressed payload is the pixel storage verbatim.
	first := math.Float32frombits(xdr.ByteOrder.Uint32(data[HeaderSize:]))
	if first != img.Data()[0] {
		t.Errorf("first value = %v, want %v", first, img.Data()[0])
	}
}

func TestCompressionShrinksPayload(t *testing.T) {
	img := histogramImage(128, 128, 21)
	var raw, packed bytes.Buffer
	if err := Encode(&raw, img, Options{Codec: CodecNone}); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&packed, img, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if packed.Len() >= raw.Len() {
		t.Errorf("zstd snapshot %d bytes, uncompressed %d", packed.Len(), raw.Len())
	}
}

func TestReadHeader(t *testing.T) {
	img := histogramImage(5, 6, 7)
	var buf bytes.Buffer
	if err := Encode(&buf, img, Options{Codec: CodecZlib, Level: compression.LevelDefault}); err != nil {
		t.Fatal(err)
	}
	total := buf.Len()

	h, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Shape != img.Shape() || h.Codec != CodecZlib {
		t.Errorf("header = %+v", h)
	}
	if int(h.PayloadSize) != total-HeaderSize || buf.Len() != total-HeaderSize {
		t.Errorf("payload size = %d, remaining %d, want %d", h.PayloadSize, buf.Len(), total-HeaderSize)
	}
}

func TestDecodeErrors(t *testing.T) {
	img := histogramImage(4, 4, 3)
	var good bytes.Buffer
	if err := Encode(&good, img, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	valid := good.Bytes()

	modify := func(f func(b []byte) []byte) []byte {
		return f(bytes.Clone(valid))
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"short header", valid[:10], ErrBadMagic},
		{"magic", modify(func(b []byte) []byte { b[0] = 'X'; return b }), ErrBadMagic},
		{"version", modify(func(b []byte) []byte { b[4] = 9; return b }), ErrVersion},
		{"codec", modify(func(b []byte) []byte { b[5] = 7; return b }), ErrCodec},
		{"truncated payload", valid[:len(valid)-5], ErrCorrupt},
		{"corrupt payload", modify(func(b []byte) []byte {
			for i := HeaderSize; i < len(b); i++ {
				b[i] ^= 0x5a
			}
			return b
		}), ErrCorrupt},
		{"huge", modify(func(b []byte) []byte {
			xdr.ByteOrder.PutUint32(b[8:], 1<<20)
			xdr.ByteOrder.PutUint32(b[12:], 1<<20)
			return b
		}), ErrTooLarge},
		{"dimension", modify(func(b []byte) []byte {
			xdr.ByteOrder.PutUint32(b[16:], math.MaxUint32)
			return b
		}), ErrDimensions},
		{"payload size", modify(func(b []byte) []byte {
			xdr.ByteOrder.PutUint64(b[20:], math.MaxUint64)
			return b
		}), ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeUncompressedSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, histogramImage(2, 2, 2), Options{Codec: CodecNone}); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	xdr.ByteOrder.PutUint64(b[20:], 12)
	if _, err := Decode(bytes.NewReader(b)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode() error = %v, want ErrCorrupt", err)
	}
}

// allocated returns the bytes allocated while f runs.
func allocated(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestDecodeInflatingPayload(t *testing.T) {
	// A valid zstd frame whose content is far larger than the header's shape.
	frame, err := compression.ZstdCompress(make([]byte, 64<<20), compression.LevelBestSpeed)
	if err != nil {
		t.Fatal(err)
	}
	h := Header{
		Shape:       deep.Shape{Width: 256, Height: 128, Depth: 1},
		Codec:       CodecZstd,
		PayloadSize: uint64(len(frame)),
	}
	data := append(h.marshal(), frame...)

	// Warm up the shared decoder so its setup is not counted.
	var warm bytes.Buffer
	if err := Encode(&warm, histogramImage(4, 4, 2), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(&warm); err != nil {
		t.Fatal(err)
	}

	n := allocated(func() {
		_, err = Decode(bytes.NewReader(data))
	})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode() error = %v, want ErrCorrupt", err)
	}
	if n > 16<<20 {
		t.Errorf("Decode() allocated %d bytes for a %d byte snapshot", n, len(data))
	}
}

func TestDecodeShortPayload(t *testing.T) {
	// The header claims 256 MiB but the stream ends after a few bytes.
	h := Header{
		Shape:       deep.Shape{Width: 1024, Height: 1024, Depth: 64},
		Codec:       CodecNone,
		PayloadSize: 4 * 1024 * 1024 * 64,
	}
	data := append(h.marshal(), make([]byte, 10)...)

	var err error
	n := allocated(func() {
		_, err = Decode(bytes.NewReader(data))
	})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode() error = %v, want ErrCorrupt", err)
	}
	if n > 16<<20 {
		t.Errorf("Decode() allocated %d bytes for a %d byte snapshot", n, len(data))
	}
}

func TestDecodeLargePayload(t *testing.T) {
	// Payloads past the first chunk take the buffered read path.
	img := histogramImage(512, 300, 3)
	var buf bytes.Buffer
	if err := Encode(&buf, img, Options{Codec: CodecNone}); err != nil {
		t.Fatal(err)
	}
	if buf.Len()-HeaderSize <= payloadChunk {
		t.Fatalf("payload of %d bytes does not exceed the chunk size", buf.Len()-HeaderSize)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.Equal(img) {
		t.Error("Decode() changed the image")
	}
}

func TestEncodeErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, DefaultOptions()); !errors.Is(err, ErrNilImage) {
		t.Errorf("Encode(nil) error = %v, want ErrNilImage", err)
	}
	if err := Encode(&buf, deep.New(1, 1, 1), Options{Codec: 42}); !errors.Is(err, ErrCodec) {
		t.Errorf("Encode() with bad codec error = %v, want ErrCodec", err)
	}
	if err := Encode(&buf, deep.New(1, 1, 1), Options{Codec: CodecZstd, Level: 99}); !errors.Is(err, compression.ErrLevel) {
		t.Errorf("Encode() with bad level error = %v, want compression.ErrLevel", err)
	}
	if buf.Len() != 0 {
		t.Errorf("failed encodes wrote %d bytes", buf.Len())
	}
}

func TestCodecNames(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecZlib, CodecZstd} {
		got, err := ParseCodec(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCodec(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCodec("lz4"); !errors.Is(err, ErrCodec) {
		t.Errorf("ParseCodec(lz4) error = %v, want ErrCodec", err)
	}
	if got := Codec(200).String(); got != "Codec(200)" {
		t.Errorf("Codec(200).String() = %q", got)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "histo.dimg")
	img := histogramImage(10, 7, 13)

	if err := WriteFile(name, img, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	h, err := ReadFileHeader(name)
	if err != nil {
		t.Fatalf("ReadFileHeader() error = %v", err)
	}
	if h.Shape != img.Shape() || h.Codec != CodecZstd {
		t.Errorf("header = %+v", h)
	}
	got, err := ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !got.Equal(img) {
		t.Error("file round trip changed the image")
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.dimg")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.dimg")
	if err := os.WriteFile(bad, []byte("not a snapshot at all, clearly"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(bad); !errors.Is(err, ErrBadMagic) {
		t.Errorf("ReadFile(bad) error = %v, want ErrBadMagic", err)
	}
}
