package layout

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-deepimage/deep"
)

// Shape errors
var (
	ErrNilImage      = errors.New("layout: nil image")
	ErrEmptyImage    = errors.New("layout: image has zero width or height")
	ErrDepth         = errors.New("layout: invalid source depth")
	ErrNoLayers      = errors.New("layout: source has no channel layers")
	ErrShapeMismatch = errors.New("layout: image dimensions differ")
	ErrCountDepth    = errors.New("layout: sample count image must have depth 1")
	ErrAliased       = errors.New("layout: destination aliases another image")
	ErrInvalidMap    = errors.New("layout: invalid channel map")
)

// ShapeError reports an image whose shape does not satisfy an operation's
// preconditions. It unwraps to one of the package's sentinel errors.
type ShapeError struct {
	Op     string     // operation, e.g. "separate"
	Image  string     // role of the offending image, e.g. "source"
	Shape  deep.Shape // shape of the offending image
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("%v: %s: %s %s", e.Err, e.Op, e.Image, e.Shape)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

func shapeError(op, role string, img *deep.Image, err error, reason string) *ShapeError {
	e := &ShapeError{Op: op, Image: role, Reason: reason, Err: err}
	if img != nil {
		e.Shape = img.Shape()
	}
	return e
}

// checkSource validates an input image that must hold at least one pixel.
func checkSource(op, role string, img *deep.Image) error {
	if img == nil {
		return shapeError(op, role, nil, ErrNilImage, "")
	}
	if img.Width() == 0 || img.Height() == 0 {
		return shapeError(op, role, img, ErrEmptyImage, "")
	}
	return nil
}

// checkDestinations rejects nil destinations and destinations that share
// storage with a source or with each other.
func checkDestinations(op string, sources []*deep.Image, dsts ...*deep.Image) error {
	for i, dst := range dsts {
		if dst == nil {
			return shapeError(op, "destination", nil, ErrNilImage, "")
		}
		for _, src := range sources {
			if dst.Overwrites(src) {
				return shapeError(op, "destination", dst, ErrAliased, "shares storage with a source")
			}
		}
		for _, other := range dsts[:i] {
			if dst.SharesStorage(other) {
				return shapeError(op, "destination", dst, ErrAliased, "shares storage with another destination")
			}
		}
	}
	return nil
}
