package layout

import "github.com/mrjoshuak/go-deepimage/deep"

// Convert allocates the destination and calls ConvertInto.
func (t Transformer) Convert(src *deep.Image, m ChannelMap) (*deep.Image, error) {
	dst := new(deep.Image)
	if err := t.ConvertInto(dst, src, m); err != nil {
		return nil, err
	}
	return dst, nil
}

// ConvertInto remaps every layer of src according to m and writes the
// result to dst.
//
// The source depth must be a non-zero multiple of m.SrcStride; there is no
// trailing count channel. dst is resized to m.DstStride channels per layer.
func (t Transformer) ConvertInto(dst, src *deep.Image, m ChannelMap) error {
	const op = "convert"
	if err := m.Validate(); err != nil {
		return err
	}
	if err := checkSource(op, "source", src); err != nil {
		return err
	}
	layers, err := m.Layers(src.Depth(), 0)
	if err != nil {
		return shapeError(op, "source", src, err, "depth must be a multiple of the layer width")
	}
	if err := checkDestinations(op, []*deep.Image{src}, dst); err != nil {
		return err
	}

	dst.Resize(src.Width(), src.Height(), m.DstDepth(layers))
	t.logOp(op, src)

	t.forRows(src, func(p0, p1 int) {
		for i := p0; i < p1; i++ {
			m.Apply(dst.Pixel(i), src.Pixel(i), layers)
		}
	})
	return nil
}

// ConvertFromABGR reorders ABGR layers to RGB.
func (t Transformer) ConvertFromABGR(src *deep.Image) (*deep.Image, error) {
	return t.Convert(src, abgrToRGB)
}
