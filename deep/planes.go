package deep

import (
	"fmt"
	"unsafe"
)

// FromPlanes builds an image from one plane per channel. Each plane holds
// width*height values in row-major order, which is how scanline readers
// deliver per-channel data. Channel c of the result comes from planes[c].
func FromPlanes(width, height int, planes [][]float32) (*Image, error) {
	s := Shape{width, height, len(planes)}
	if !s.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, s)
	}
	n := s.Pixels()
	for c, p := range planes {
		if len(p) != n {
			return nil, fmt.Errorf("%w: plane %d has %d values, want %d", ErrDataSize, c, len(p), n)
		}
	}

	img := New(width, height, len(planes))
	d := img.depth
	for c, p := range planes {
		for i, v := range p {
			img.data[i*d+c] = v
		}
	}
	return img, nil
}

// Plane copies channel c of every pixel into a new row-major plane.
func (img *Image) Plane(c int) ([]float32, error) {
	if c < 0 || c >= img.depth {
		return nil, fmt.Errorf("%w: %d (depth %d)", ErrChannelRange, c, img.depth)
	}
	n := img.Len()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = img.data[i*img.depth+c]
	}
	return out, nil
}

// overlaps reports whether two float slices share any element.
func overlaps(a, b []float32) bool {
	const size = unsafe.Sizeof(float32(0))
	aStart := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	bStart := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	aEnd := aStart + uintptr(len(a))*size
	bEnd := bStart + uintptr(len(b))*size
	return aStart < bEnd && bStart < aEnd
}
