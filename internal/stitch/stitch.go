// Package stitch is the composition service: it decodes an ordered set of
// located images and lays them out into one composite bitmap.
//
// Contract:
//   - an empty request fails with ErrNoImages
//   - an input that cannot be decoded as its declared media type fails with
//     a *DecodeError naming its index
//   - a composite larger than MaxSide on either axis or MaxPixels in total
//     fails with ErrTooLarge, before any pixel buffer is allocated
//   - images appear in the composite in request order
package stitch

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/located"
)

// Alignment is the layout strategy for the composite.
type Alignment int

const (
	// Grid arranges images in rows of ceil(sqrt(n)) columns.
	Grid Alignment = iota
	// Horizontal places images left to right.
	Horizontal
	// Vertical places images top to bottom.
	Vertical
)

func (a Alignment) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Grid:
		return "grid"
	default:
		return fmt.Sprintf("alignment(%d)", int(a))
	}
}

// Filter selects the resampling used whenever an image is resized.
type Filter int

const (
	// HighQuality resamples with a Catmull-Rom kernel.
	HighQuality Filter = iota
	// NearestNeighbor is fast and blocky.
	NearestNeighbor
)

func (f Filter) String() string {
	if f == NearestNeighbor {
		return "nearest"
	}
	return "catmull-rom"
}

func (f Filter) scaler() draw.Scaler {
	if f == NearestNeighbor {
		return draw.NearestNeighbor
	}
	return draw.CatmullRom
}

// Composite size limits.
const (
	MaxSide   = 65535
	MaxPixels = 1 << 28
)

var (
	// ErrNoImages is returned for a request without images.
	ErrNoImages = errors.New("no images to stitch")
	// ErrTooLarge is returned when the composite would exceed the limits.
	ErrTooLarge = errors.New("composite image exceeds size limits")
)

// DecodeError reports an input that could not be decoded.
type DecodeError struct {
	Index     int
	MediaType string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("input %d (%s): %v", e.Index, e.MediaType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Request describes one composition.
type Request struct {
	Images    []located.Image
	Alignment Alignment
	// MaxWidth and MaxHeight bound the composite; 0 means unbounded.
	MaxWidth  int
	MaxHeight int
	Filter    Filter
}

// Stitch decodes every image in order and composes them.
func Stitch(req Request) (*image.RGBA, error) {
	if len(req.Images) == 0 {
		return nil, ErrNoImages
	}

	images := make([]image.Image, len(req.Images))
	for i, li := range req.Images {
		img, err := decodeLocated(li)
		if err != nil {
			return nil, &DecodeError{Index: i, MediaType: li.MediaType, Err: err}
		}
		images[i] = img
	}

	log.Debug().
		Int("images", len(images)).
		Str("alignment", req.Alignment.String()).
		Str("filter", req.Filter.String()).
		Int("max_width", req.MaxWidth).
		Int("max_height", req.MaxHeight).
		Msg("Composing images")

	return Compose(images, req.Alignment, req.MaxWidth, req.MaxHeight, req.Filter)
}

func decodeLocated(li located.Image) (image.Image, error) {
	r, err := li.Source.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, _, err := filehandler.DecodeImage(r, li.MediaType)
	return img, err
}

// Compose lays out already decoded images. It is exported so callers that
// hold bitmaps can reuse the layout without a decode step.
func Compose(images []image.Image, alignment Alignment, maxWidth, maxHeight int, filter Filter) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	var plan layout
	var err error
	switch alignment {
	case Horizontal:
		plan, err = planStrip(images, true)
	case Vertical:
		plan, err = planStrip(images, false)
	default:
		plan, err = planGrid(images)
	}
	if err != nil {
		return nil, err
	}

	plan = plan.fit(maxWidth, maxHeight)
	if err := checkLimits(plan.width, plan.height); err != nil {
		return nil, err
	}

	scaler := filter.scaler()
	dst := image.NewRGBA(image.Rect(0, 0, plan.width, plan.height))
	for i, cell := range plan.cells {
		if cell.Empty() {
			continue
		}
		src := images[i]
		scaler.Scale(dst, cell, src, src.Bounds(), draw.Src, nil)
	}
	return dst, nil
}

// layout assigns every image a destination rectangle.
type layout struct {
	width, height int
	cells         []image.Rectangle
}

// fit scales the whole layout down, preserving aspect ratio, until it lies
// within the limits. Layouts are never scaled up.
func (l layout) fit(maxWidth, maxHeight int) layout {
	scale := 1.0
	if maxWidth > 0 && l.width > maxWidth {
		scale = math.Min(scale, float64(maxWidth)/float64(l.width))
	}
	if maxHeight > 0 && l.height > maxHeight {
		scale = math.Min(scale, float64(maxHeight)/float64(l.height))
	}
	if scale >= 1 {
		return l
	}

	out := layout{
		width:  clampLength(float64(l.width)*scale, maxWidth),
		height: clampLength(float64(l.height)*scale, maxHeight),
		cells:  make([]image.Rectangle, len(l.cells)),
	}
	for i, c := range l.cells {
		r := image.Rect(
			int(math.Round(float64(c.Min.X)*scale)),
			int(math.Round(float64(c.Min.Y)*scale)),
			int(math.Round(float64(c.Max.X)*scale)),
			int(math.Round(float64(c.Max.Y)*scale)),
		)
		out.cells[i] = r.Intersect(image.Rect(0, 0, out.width, out.height))
	}
	return out
}

// planStrip places images in one row (horizontal) or column, each scaled to
// the smallest height (or width) among them.
func planStrip(images []image.Image, horizontal bool) (layout, error) {
	sizes := make([]image.Point, len(images))
	for i, img := range images {
		sizes[i] = img.Bounds().Size()
	}
	return stripOf(sizes, horizontal)
}

func stripOf(sizes []image.Point, horizontal bool) (layout, error) {
	common := math.MaxInt
	for _, s := range sizes {
		if s.X <= 0 || s.Y <= 0 {
			return layout{}, fmt.Errorf("image with empty bounds %v", s)
		}
		if horizontal {
			common = min(common, s.Y)
		} else {
			common = min(common, s.X)
		}
	}

	l := layout{cells: make([]image.Rectangle, len(sizes))}
	offset := 0
	for i, s := range sizes {
		var length int
		if horizontal {
			length = scaledLength(s.X, s.Y, common)
			l.cells[i] = image.Rect(offset, 0, offset+length, common)
		} else {
			length = scaledLength(s.Y, s.X, common)
			l.cells[i] = image.Rect(0, offset, common, offset+length)
		}
		offset += length
		if offset > MaxSide {
			return layout{}, fmt.Errorf("%w: strip length exceeds %d", ErrTooLarge, MaxSide)
		}
	}

	if horizontal {
		l.width, l.height = offset, common
	} else {
		l.width, l.height = common, offset
	}
	return l, nil
}

// planGrid builds rows of ceil(sqrt(n)) images as horizontal strips, then
// stacks the rows scaled to the narrowest row width.
func planGrid(images []image.Image) (layout, error) {
	n := len(images)
	cols := int(math.Ceil(math.Sqrt(float64(n))))

	var rows []layout
	for start := 0; start < n; start += cols {
		end := min(start+cols, n)
		row, err := planStrip(images[start:end], true)
		if err != nil {
			return layout{}, err
		}
		rows = append(rows, row)
	}

	width := math.MaxInt
	for _, r := range rows {
		width = min(width, r.width)
	}

	out := layout{width: width, cells: make([]image.Rectangle, 0, n)}
	for _, r := range rows {
		scale := float64(width) / float64(r.width)
		height := max(1, int(math.Round(float64(r.height)*scale)))
		for _, c := range r.cells {
			out.cells = append(out.cells, image.Rect(
				int(math.Round(float64(c.Min.X)*scale)),
				out.height,
				int(math.Round(float64(c.Max.X)*scale)),
				out.height+height,
			))
		}
		out.height += height
		if out.height > MaxSide {
			return layout{}, fmt.Errorf("%w: grid height exceeds %d", ErrTooLarge, MaxSide)
		}
	}
	return out, nil
}

// scaledLength returns length scaled by target/across, at least 1 pixel.
func scaledLength(length, across, target int) int {
	return max(1, int(math.Round(float64(length)*float64(target)/float64(across))))
}

func clampLength(v float64, limit int) int {
	n := max(1, int(math.Round(v)))
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

func checkLimits(width, height int) error {
	if width > MaxSide || height > MaxSide {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels per side", ErrTooLarge, width, height, MaxSide)
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, MaxPixels)
	}
	return nil
}
