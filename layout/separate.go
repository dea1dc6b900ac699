package layout

import "github.com/mrjoshuak/go-deepimage/deep"

// Separate allocates the destinations and calls SeparateInto.
func (t Transformer) Separate(src *deep.Image) (histo, count *deep.Image, err error) {
	histo, count = new(deep.Image), new(deep.Image)
	if err := t.SeparateInto(histo, count, src); err != nil {
		return nil, nil, err
	}
	return histo, count, nil
}

// SeparateInto splits src, whose last channel is the per-pixel sample
// count, into histo and count.
//
// For a source of depth d+1, histo is resized to depth d and receives
// channels 0..d-1 of every pixel unchanged; count is resized to depth 1 and
// receives channel d. Both keep the source width and height. A source of
// depth 1 is valid and yields a histogram of depth 0.
func (t Transformer) SeparateInto(histo, count, src *deep.Image) error {
	const op = "separate"
	if err := checkSource(op, "source", src); err != nil {
		return err
	}
	d := src.Depth() - 1
	if d < 0 {
		return shapeError(op, "source", src, ErrDepth, "missing sample count channel")
	}
	if err := checkDestinations(op, []*deep.Image{src}, histo, count); err != nil {
		return err
	}

	histo.Resize(src.Width(), src.Height(), d)
	count.Resize(src.Width(), src.Height(), 1)
	t.logOp(op, src)

	t.forRows(src, func(p0, p1 int) {
		for i := p0; i < p1; i++ {
			px := src.Pixel(i)
			copy(histo.Pixel(i), px[:d])
			count.Pixel(i)[0] = px[d]
		}
	})
	return nil
}

// SeparateBlender allocates the destinations and calls
// SeparateBlenderInto.
func (t Transformer) SeparateBlender(src *deep.Image) (histo, count *deep.Image, err error) {
	histo, count = new(deep.Image), new(deep.Image)
	if err := t.SeparateBlenderInto(histo, count, src); err != nil {
		return nil, nil, err
	}
	return histo, count, nil
}

// SeparateBlenderInto splits a Blender histogram into histo and count.
//
// The source holds n layers of four channels ordered A, B, G, R followed by
// one sample count channel, so its depth is 4n+1 with n >= 1. histo is
// resized to depth 3n and receives, for layer i, R, G and B from source
// channels 4i+3, 4i+2 and 4i+1. Alpha is dropped. count receives the last
// source channel.
func (t Transformer) SeparateBlenderInto(histo, count, src *deep.Image) error {
	const op = "separate blender"
	if err := checkSource(op, "source", src); err != nil {
		return err
	}
	layers, err := abgrToRGB.Layers(src.Depth(), 1)
	if err != nil {
		return shapeError(op, "source", src, err, "depth must be 4*layers+1")
	}
	if err := checkDestinations(op, []*deep.Image{src}, histo, count); err != nil {
		return err
	}

	histo.Resize(src.Width(), src.Height(), abgrToRGB.DstDepth(layers))
	count.Resize(src.Width(), src.Height(), 1)
	t.logOp(op, src)

	last := src.Depth() - 1
	t.forRows(src, func(p0, p1 int) {
		for i := p0; i < p1; i++ {
			px := src.Pixel(i)
			abgrToRGB.Apply(histo.Pixel(i), px, layers)
			count.Pixel(i)[0] = px[last]
		}
	})
	return nil
}
