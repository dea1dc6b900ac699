package layout

import "fmt"

// ChannelMap describes a per-layer channel remapping.
//
// A pixel is a sequence of layers. In the source each layer is SrcStride
// channels wide, in the destination DstStride channels wide. Destination
// channel j of layer i reads source channel i*SrcStride + Src[j]. Source
// channels not listed in Src are dropped.
type ChannelMap struct {
	SrcStride int
	DstStride int
	Src       []int
}

// Predefined channel maps.
var (
	// ABGRToRGB drops alpha from ABGR layers and reorders the rest to RGB.
	ABGRToRGB = ChannelMap{SrcStride: 4, DstStride: 3, Src: []int{3, 2, 1}}

	// ABGRToRGBA reorders ABGR layers to RGBA, keeping alpha.
	ABGRToRGBA = ChannelMap{SrcStride: 4, DstStride: 4, Src: []int{3, 2, 1, 0}}

	// RGBAToRGB drops alpha from RGBA layers.
	RGBAToRGB = ChannelMap{SrcStride: 4, DstStride: 3, Src: []int{0, 1, 2}}
)

// abgrToRGB backs SeparateBlender and ConvertFromABGR. It is separate from
// ABGRToRGB so that reassigning the exported map cannot change them.
var abgrToRGB = ChannelMap{SrcStride: 4, DstStride: 3, Src: []int{3, 2, 1}}

// Validate checks that the map is well formed.
func (m ChannelMap) Validate() error {
	if m.SrcStride <= 0 || m.DstStride <= 0 {
		return fmt.Errorf("%w: strides %d->%d", ErrInvalidMap, m.SrcStride, m.DstStride)
	}
	if len(m.Src) != m.DstStride {
		return fmt.Errorf("%w: %d source offsets for destination stride %d", ErrInvalidMap, len(m.Src), m.DstStride)
	}
	for j, off := range m.Src {
		if off < 0 || off >= m.SrcStride {
			return fmt.Errorf("%w: offset %d for channel %d outside layer of %d", ErrInvalidMap, off, j, m.SrcStride)
		}
	}
	return nil
}

// Layers returns the number of layers in a source pixel of the given depth
// whose last trailing channels are not part of any layer.
func (m ChannelMap) Layers(depth, trailing int) (int, error) {
	if m.SrcStride <= 0 {
		return 0, fmt.Errorf("%w: source stride %d", ErrInvalidMap, m.SrcStride)
	}
	body := depth - trailing
	if body < 0 || body%m.SrcStride != 0 {
		return 0, ErrDepth
	}
	n := body / m.SrcStride
	if n == 0 {
		return 0, ErrNoLayers
	}
	return n, nil
}

// DstDepth returns the destination depth for the given number of layers.
func (m ChannelMap) DstDepth(layers int) int {
	return layers * m.DstStride
}

// SourceIndex returns the source channel read by destination channel j of
// the given layer.
func (m ChannelMap) SourceIndex(layer, j int) int {
	return layer*m.SrcStride + m.Src[j]
}

// Apply remaps the first layers layers of one source pixel into dst.
func (m ChannelMap) Apply(dst, src []float32, layers int) {
	for i := 0; i < layers; i++ {
		s := src[i*m.SrcStride : (i+1)*m.SrcStride]
		d := dst[i*m.DstStride : (i+1)*m.DstStride]
		for j, off := range m.Src {
			d[j] = s[off]
		}
	}
}
