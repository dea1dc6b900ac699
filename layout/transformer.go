// Package layout reformats the channel layout of deep images.
//
// The denoiser consumes histogram images and per-pixel sample counts as
// separate buffers, while renderers usually write them interleaved in one
// image with the count as the last channel. This package converts between
// the two forms and normalizes the ABGR channel order produced by Blender's
// multilayer output:
//
//   - Separate splits a depth d+1 image into a depth d histogram and a
//     depth 1 sample count image.
//   - SeparateBlender does the same for Blender histograms, whose layers are
//     ABGR and become RGB.
//   - ConvertFromABGR reorders ABGR layers to RGB without a count channel.
//   - Merge interleaves a histogram and a sample count image again.
//
// Every operation validates the shapes of its inputs and returns a
// *ShapeError when they do not fit. Destination images are reshaped before
// they are written; their previous contents are discarded.
package layout

import (
	"github.com/mrjoshuak/go-deepimage/deep"
	"github.com/mrjoshuak/go-deepimage/internal/parallel"
)

// Transformer runs layout operations, optionally splitting rows across
// goroutines. The zero value uses every available CPU. Output is identical
// for any worker count.
type Transformer struct {
	// Workers is the number of goroutines. 0 means runtime.GOMAXPROCS(0),
	// 1 runs on the calling goroutine.
	Workers int

	// GrainRows is the minimum number of rows per worker. Images with fewer
	// rows than GrainRows*Workers are processed sequentially.
	GrainRows int
}

// sequential backs the package-level functions.
var sequential = Transformer{Workers: 1}

func (t Transformer) config() parallel.Config {
	return parallel.Config{Workers: t.Workers, Grain: t.GrainRows}
}

// forRows calls fn over contiguous pixel index ranges covering whole rows.
func (t Transformer) forRows(img *deep.Image, fn func(p0, p1 int)) {
	w := img.Width()
	parallel.For(t.config(), img.Height(), func(y0, y1 int) {
		fn(y0*w, y1*w)
	})
}

func (t Transformer) logOp(op string, src *deep.Image) {
	Logger().Debug("layout: "+op,
		"width", src.Width(),
		"height", src.Height(),
		"depth", src.Depth(),
		"workers", t.config().EffectiveWorkers())
}

// Separate splits src into a histogram image and a sample count image. See
// Transformer.SeparateInto.
func Separate(src *deep.Image) (histo, count *deep.Image, err error) {
	return sequential.Separate(src)
}

// SeparateInto is the sequential form of Transformer.SeparateInto.
func SeparateInto(histo, count, src *deep.Image) error {
	return sequential.SeparateInto(histo, count, src)
}

// SeparateBlender splits a Blender histogram. See
// Transformer.SeparateBlenderInto.
func SeparateBlender(src *deep.Image) (histo, count *deep.Image, err error) {
	return sequential.SeparateBlender(src)
}

// SeparateBlenderInto is the sequential form of
// Transformer.SeparateBlenderInto.
func SeparateBlenderInto(histo, count, src *deep.Image) error {
	return sequential.SeparateBlenderInto(histo, count, src)
}

// Convert remaps the layers of src according to m.
func Convert(src *deep.Image, m ChannelMap) (*deep.Image, error) {
	return sequential.Convert(src, m)
}

// ConvertInto is the sequential form of Transformer.ConvertInto.
func ConvertInto(dst, src *deep.Image, m ChannelMap) error {
	return sequential.ConvertInto(dst, src, m)
}

// ConvertFromABGR reorders the ABGR layers of src to RGB, dropping alpha.
func ConvertFromABGR(src *deep.Image) (*deep.Image, error) {
	return sequential.Convert(src, abgrToRGB)
}

// ConvertFromABGRInto is ConvertFromABGR writing into dst.
func ConvertFromABGRInto(dst, src *deep.Image) error {
	return sequential.ConvertInto(dst, src, abgrToRGB)
}

// Merge interleaves a histogram and a sample count image. See
// Transformer.MergeInto.
func Merge(histo, count *deep.Image) (*deep.Image, error) {
	return sequential.Merge(histo, count)
}

// MergeInto is the sequential form of Transformer.MergeInto.
func MergeInto(dst, histo, count *deep.Image) error {
	return sequential.MergeInto(dst, histo, count)
}
