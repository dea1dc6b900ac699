package layout

import "github.com/mrjoshuak/go-deepimage/deep"

// Merge returns a new image interleaving histo and count. See MergeInto.
func (t Transformer) Merge(histo, count *deep.Image) (*deep.Image, error) {
	dst := new(deep.Image)
	if err := t.MergeInto(dst, histo, count); err != nil {
		return nil, err
	}
	return dst, nil
}

// MergeInto writes histo and count interleaved into dst, the inverse of
// SeparateInto.
//
// histo may have any depth d, including 0; count must have depth 1 and the
// same width and height as histo. dst is resized to depth d+1: channels
// 0..d-1 come from histo and channel d from count.
func (t Transformer) MergeInto(dst, histo, count *deep.Image) error {
	const op = "merge"
	if err := checkSource(op, "histogram", histo); err != nil {
		return err
	}
	if count == nil {
		return shapeError(op, "count", nil, ErrNilImage, "")
	}
	if count.Width() != histo.Width() || count.Height() != histo.Height() {
		return shapeError(op, "count", count, ErrShapeMismatch, "histogram is "+histo.Shape().String())
	}
	if count.Depth() != 1 {
		return shapeError(op, "count", count, ErrCountDepth, "")
	}
	if err := checkDestinations(op, []*deep.Image{histo, count}, dst); err != nil {
		return err
	}

	d := histo.Depth()
	dst.Resize(histo.Width(), histo.Height(), d+1)
	t.logOp(op, histo)

	t.forRows(histo, func(p0, p1 int) {
		for i := p0; i < p1; i++ {
			px := dst.Pixel(i)
			copy(px[:d], histo.Pixel(i))
			px[d] = count.Pixel(i)[0]
		}
	})
	return nil
}
