package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll
// calls, so one instance per level is shared.
//
// The decoder never grows the destination of DecodeAll, so a small frame
// that inflates past the expected size fails instead of allocating.
var (
	zstdEncodersMu sync.Mutex
	zstdEncoders   = map[zstd.EncoderLevel]*zstd.Encoder{}

	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil,
			zstd.WithDecodeAllCapLimit(true),
			zstd.WithDecoderMaxMemory(zstdMaxMemory),
		)
	})
)

// zstdMaxMemory bounds the window a frame may request from the decoder.
const zstdMaxMemory = 1 << 32

// zstdLevel maps a Level onto a zstd speed preset.
func zstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level == LevelDefault:
		return zstd.SpeedDefault
	case level <= LevelBestSpeed:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 7:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func zstdEncoder(level Level) (*zstd.Encoder, error) {
	zl := zstdLevel(level)

	zstdEncodersMu.Lock()
	defer zstdEncodersMu.Unlock()
	if enc, ok := zstdEncoders[zl]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zl))
	if err != nil {
		return nil, err
	}
	zstdEncoders[zl] = enc
	return enc, nil
}

// ZstdCompress compresses src with Zstandard.
func ZstdCompress(src []byte, level Level) ([]byte, error) {
	if !level.Valid() {
		return nil, ErrLevel
	}
	enc, err := zstdEncoder(level)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, nil), nil
}

// ZstdDecompress decompresses src into dst. The decompressed frame must be
// exactly len(dst) bytes long.
func ZstdDecompress(dst, src []byte) error {
	dec, err := zstdDecoder()
	if err != nil {
		return err
	}
	out, err := dec.DecodeAll(src, dst[:0:len(dst)])
	if err != nil || len(out) != len(dst) {
		return ErrCorrupted
	}
	return nil
}
