// Package deep provides a dense multi-channel float image.
//
// An Image is a width x height grid where every pixel holds the same number
// of float32 channels (its depth). Channel values of one pixel are stored
// contiguously and pixels are stored in row-major order, so the whole image
// is a single []float32 of length width*height*depth.
//
// Images of this kind carry the intermediate data of a Monte-Carlo denoiser:
// per-pixel histogram bins, colors, and sample counts.
package deep

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// Image errors
var (
	ErrInvalidShape = errors.New("deep: invalid image shape")
	ErrDataSize     = errors.New("deep: data length does not match shape")
	ErrChannelRange = errors.New("deep: channel index out of range")
)

// Shape describes the dimensions of an Image.
type Shape struct {
	Width  int
	Height int
	Depth  int
}

// Values returns the number of float32 values an image of this shape stores.
func (s Shape) Values() int {
	return s.Width * s.Height * s.Depth
}

// Pixels returns the number of pixels of this shape.
func (s Shape) Pixels() int {
	return s.Width * s.Height
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Depth)
}

func (s Shape) valid() bool {
	return s.Width >= 0 && s.Height >= 0 && s.Depth >= 0
}

// Image is a dense 2D grid of pixels with a fixed number of float32
// channels per pixel.
//
// Depth 0 is legal: the image then has width*height pixels with no
// channels and no storage.
type Image struct {
	width  int
	height int
	depth  int
	data   []float32
}

// New allocates a zeroed image. It panics if any dimension is negative.
func New(width, height, depth int) *Image {
	img := &Image{}
	img.Resize(width, height, depth)
	return img
}

// FromData wraps data as an image without copying.
func FromData(width, height, depth int, data []float32) (*Image, error) {
	s := Shape{width, height, depth}
	if !s.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, s)
	}
	if len(data) != s.Values() {
		return nil, fmt.Errorf("%w: have %d values, want %d", ErrDataSize, len(data), s.Values())
	}
	return &Image{width: width, height: height, depth: depth, data: data}, nil
}

// Width returns the number of pixels per row.
func (img *Image) Width() int { return img.width }

// Height returns the number of rows.
func (img *Image) Height() int { return img.height }

// Depth returns the number of channels per pixel.
func (img *Image) Depth() int { return img.depth }

// Len returns the number of pixels.
func (img *Image) Len() int { return img.width * img.height }

// Shape returns the image dimensions.
func (img *Image) Shape() Shape {
	return Shape{img.width, img.height, img.depth}
}

// Data returns the backing storage.
func (img *Image) Data() []float32 { return img.data }

// Resize reshapes the image. Previous contents are always discarded: the
// storage is reused when its capacity suffices but every value is reset to
// zero. It panics if any dimension is negative.
func (img *Image) Resize(width, height, depth int) {
	s := Shape{width, height, depth}
	if !s.valid() {
		panic("deep: negative image dimension " + s.String())
	}
	n := s.Values()
	if cap(img.data) >= n {
		img.data = img.data[:n]
		clear(img.data)
	} else {
		img.data = make([]float32, n)
	}
	img.width, img.height, img.depth = width, height, depth
}

// Pixel returns the channel block of the i-th pixel in iteration order.
// The returned slice aliases the image storage and its capacity is limited
// to the block, so appending to it never overwrites the next pixel.
func (img *Image) Pixel(i int) []float32 {
	off := i * img.depth
	return img.data[off : off+img.depth : off+img.depth]
}

// At returns the channel block of the pixel at (x, y).
func (img *Image) At(x, y int) []float32 {
	return img.Pixel(y*img.width + x)
}

// Row returns the channel values of every pixel in row y.
func (img *Image) Row(y int) []float32 {
	stride := img.width * img.depth
	off := y * stride
	return img.data[off : off+stride : off+stride]
}

// Rows returns the values of rows [y0, y1).
func (img *Image) Rows(y0, y1 int) []float32 {
	stride := img.width * img.depth
	return img.data[y0*stride : y1*stride : y1*stride]
}

// Pixels iterates over every pixel in row-major order, yielding its index
// and channel block.
func (img *Image) Pixels() iter.Seq2[int, []float32] {
	return func(yield func(int, []float32) bool) {
		n := img.Len()
		for i := 0; i < n; i++ {
			if !yield(i, img.Pixel(i)) {
				return
			}
		}
	}
}

// Fill sets every channel of every pixel to v.
func (img *Image) Fill(v float32) {
	for i := range img.data {
		img.data[i] = v
	}
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	c := &Image{width: img.width, height: img.height, depth: img.depth}
	c.data = make([]float32, len(img.data))
	copy(c.data, img.data)
	return c
}

// Equal reports whether both images have the same shape and bitwise
// identical channel values. NaNs compare equal when their bits match.
func (img *Image) Equal(other *Image) bool {
	if img == nil || other == nil {
		return img == other
	}
	if img.Shape() != other.Shape() {
		return false
	}
	for i, v := range img.data {
		if math.Float32bits(v) != math.Float32bits(other.data[i]) {
			return false
		}
	}
	return true
}

// SharesStorage reports whether both images are backed by overlapping
// memory.
func (img *Image) SharesStorage(other *Image) bool {
	if img == nil || other == nil {
		return false
	}
	if img == other {
		return true
	}
	if cap(img.data) == 0 || cap(other.data) == 0 {
		return false
	}
	a := img.data[:cap(img.data)]
	b := other.data[:cap(other.data)]
	return overlaps(a, b)
}

// Overwrites reports whether writing img anywhere within its capacity, as
// Resize followed by a full write does, could change the values src holds.
// Unlike SharesStorage it only considers the live values of src, so two
// disjoint windows of one backing array do not conflict.
func (img *Image) Overwrites(src *Image) bool {
	if img == nil || src == nil {
		return false
	}
	if img == src {
		return true
	}
	if cap(img.data) == 0 || len(src.data) == 0 {
		return false
	}
	return overlaps(img.data[:cap(img.data)], src.data)
}
