package pipeline

import (
	"errors"
	"image"

	"github.com/fpang/stitchy/internal/located"
	"github.com/fpang/stitchy/internal/options"
	"github.com/fpang/stitchy/internal/stitch"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// stitchImages translates the call options into a composition request and
// runs it. Decode failures keep their own kind; anything else the
// composition service reports is surfaced with its text unchanged.
func stitchImages(images []located.Image, opts options.Options) (*image.RGBA, error) {
	req := stitch.Request{
		Images:    images,
		Alignment: opts.Alignment(),
		MaxWidth:  int(opts.MaxW),
		MaxHeight: int(opts.MaxH),
		Filter:    opts.Filter(),
	}

	composite, err := stitch.Stitch(req)
	if err != nil {
		var decodeErr *stitch.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, stitcherr.Wrap(stitcherr.KindDecode, decodeErr.Err,
				"input %d (%s)", decodeErr.Index, decodeErr.MediaType)
		}
		return nil, err
	}
	return composite, nil
}
