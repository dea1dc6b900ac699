package compression

import (
	"bytes"
	"testing"
)

// FuzzZlibDecompress checks that arbitrary input never panics.
func FuzzZlibDecompress(f *testing.F) {
	valid, _ := ZlibCompress([]byte("hello hello hello"), LevelDefault)
	f.Add(valid, 17)
	f.Add([]byte{0x78, 0x9c}, 0)
	f.Add([]byte{}, 4)

	f.Fuzz(func(t *testing.T, data []byte, size int) {
		if size < 0 || size > 1<<20 {
			return
		}
		_ = ZlibDecompress(make([]byte, size), data)
	})
}

// FuzzZstdDecompress checks that arbitrary input never panics.
func FuzzZstdDecompress(f *testing.F) {
	valid, _ := ZstdCompress([]byte("hello hello hello"), LevelDefault)
	f.Add(valid, 17)
	f.Add([]byte{0x28, 0xb5, 0x2f, 0xfd}, 0)

	f.Fuzz(func(t *testing.T, data []byte, size int) {
		if size < 0 || size > 1<<20 {
			return
		}
		_ = ZstdDecompress(make([]byte, size), data)
	})
}

// FuzzRoundTrip checks both codecs reproduce their input.
func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add(imageLikeData(300))

	f.Fuzz(func(t *testing.T, data []byte) {
		for name, codec := range map[string]struct {
			compress   func([]byte, Level) ([]byte, error)
			decompress func(dst, src []byte) error
		}{
			"zlib": {ZlibCompress, ZlibDecompress},
			"zstd": {ZstdCompress, ZstdDecompress},
		} {
			c, err := codec.compress(data, LevelDefault)
			if err != nil {
				t.Fatalf("%s compress: %v", name, err)
			}
			got := make([]byte, len(data))
			if err := codec.decompress(got, c); err != nil {
				t.Fatalf("%s decompress: %v", name, err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s round trip failed", name)
			}
		}
	})
}
