// Package options decodes the per-call stitch configuration sent by the
// host as a JSON blob, normalizes it, and derives the layout and resize
// settings used downstream.
package options

import (
	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/jsonutil"
	"github.com/fpang/stitchy/internal/stitch"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// Defaults used by the app when no options have been saved.
const (
	DefaultJPEGQuality = 90
	MaxDimension       = 4096
	MaxQuality         = 100
)

// Options is the stitch configuration for one call. Field names on the wire
// follow the host app's settings model.
type Options struct {
	Horizontal bool   `json:"horizontal" yaml:"horizontal"`
	Vertical   bool   `json:"vertical" yaml:"vertical"`
	Quality    uint32 `json:"quality" yaml:"quality"`
	Small      bool   `json:"small" yaml:"small"`
	Fast       bool   `json:"fast" yaml:"fast"`
	MaxD       uint32 `json:"maxd" yaml:"maxd"`
	MaxW       uint32 `json:"maxw" yaml:"maxw"`
	MaxH       uint32 `json:"maxh" yaml:"maxh"`

	// Output format preference. Not required on the wire; the host also
	// passes the resulting media type explicitly.
	JPEG bool `json:"jpeg" yaml:"jpeg"`
	PNG  bool `json:"png" yaml:"png"`
	GIF  bool `json:"gif" yaml:"gif"`
	BMP  bool `json:"bmp" yaml:"bmp"`
	TIFF bool `json:"tiff" yaml:"tiff"`
	WebP bool `json:"webp" yaml:"webp"`
}

// wireOptions mirrors Options with pointers so absent fields are detectable.
type wireOptions struct {
	Horizontal *bool   `json:"horizontal"`
	Vertical   *bool   `json:"vertical"`
	Quality    *uint32 `json:"quality"`
	Small      *bool   `json:"small"`
	Fast       *bool   `json:"fast"`
	MaxD       *uint32 `json:"maxd"`
	MaxW       *uint32 `json:"maxw"`
	MaxH       *uint32 `json:"maxh"`

	JPEG *bool `json:"jpeg"`
	PNG  *bool `json:"png"`
	GIF  *bool `json:"gif"`
	BMP  *bool `json:"bmp"`
	TIFF *bool `json:"tiff"`
	WebP *bool `json:"webp"`
}

// Default returns the options the app uses before any are saved.
func Default() Options {
	return Options{
		Horizontal: true,
		Quality:    DefaultJPEGQuality,
		MaxD:       MaxDimension,
		PNG:        true,
	}
}

// Decode parses the host's JSON options and applies Prepare. Every sizing,
// layout and quality field is required.
func Decode(text string) (Options, error) {
	w, err := jsonutil.ParseJSON[wireOptions](text)
	if err != nil {
		return Options{}, stitcherr.Wrap(stitcherr.KindConfig, err, "failed to parse options")
	}

	required := []struct {
		name    string
		present bool
	}{
		{"horizontal", w.Horizontal != nil},
		{"vertical", w.Vertical != nil},
		{"quality", w.Quality != nil},
		{"small", w.Small != nil},
		{"fast", w.Fast != nil},
		{"maxd", w.MaxD != nil},
		{"maxw", w.MaxW != nil},
		{"maxh", w.MaxH != nil},
	}
	for _, field := range required {
		if !field.present {
			return Options{}, stitcherr.New(stitcherr.KindConfig, "missing required field %q", field.name)
		}
	}

	opts := Options{
		Horizontal: *w.Horizontal,
		Vertical:   *w.Vertical,
		Quality:    *w.Quality,
		Small:      *w.Small,
		Fast:       *w.Fast,
		MaxD:       *w.MaxD,
		MaxW:       *w.MaxW,
		MaxH:       *w.MaxH,
		JPEG:       deref(w.JPEG),
		PNG:        deref(w.PNG),
		GIF:        deref(w.GIF),
		BMP:        deref(w.BMP),
		TIFF:       deref(w.TIFF),
		WebP:       deref(w.WebP),
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}

	opts.Prepare()
	return opts, nil
}

func deref(b *bool) bool {
	return b != nil && *b
}

// Validate checks value ranges that the wire types cannot express.
func (o Options) Validate() error {
	if o.Quality > MaxQuality {
		return stitcherr.New(stitcherr.KindConfig, "quality %d out of range 0-%d", o.Quality, MaxQuality)
	}
	return nil
}

// Prepare makes MaxW/MaxH the canonical sizing constraint: a positive MaxD
// is shorthand for equal width and height limits and overwrites both.
func (o *Options) Prepare() {
	if o.MaxD > 0 {
		o.MaxW = o.MaxD
		o.MaxH = o.MaxD
	}
}

// Alignment derives the layout. Conflicting or absent flags fall back to a
// grid rather than failing.
func (o Options) Alignment() stitch.Alignment {
	switch {
	case o.Horizontal && !o.Vertical:
		return stitch.Horizontal
	case !o.Horizontal && o.Vertical:
		return stitch.Vertical
	default:
		return stitch.Grid
	}
}

// Filter derives the resize filter.
func (o Options) Filter() stitch.Filter {
	if o.Fast {
		return stitch.NearestNeighbor
	}
	return stitch.HighQuality
}

// OutputFormat returns the preferred output format from the format flags,
// checked in the order jpeg, png, gif, bmp, tiff, webp. PNG when none is set.
func (o Options) OutputFormat() filehandler.Format {
	switch {
	case o.JPEG:
		return filehandler.FormatJPEG
	case o.PNG:
		return filehandler.FormatPNG
	case o.GIF:
		return filehandler.FormatGIF
	case o.BMP:
		return filehandler.FormatBMP
	case o.TIFF:
		return filehandler.FormatTIFF
	case o.WebP:
		return filehandler.FormatWebP
	default:
		return filehandler.FormatPNG
	}
}

// MediaType is the media type of OutputFormat.
func (o Options) MediaType() string {
	return o.OutputFormat().MediaType()
}

// FileExtension is the file extension of OutputFormat, without the dot.
func (o Options) FileExtension() string {
	return o.OutputFormat().Extension()[1:]
}

// SetOutputFormat clears the format flags and sets the one for f.
func (o *Options) SetOutputFormat(f filehandler.Format) {
	o.JPEG = f == filehandler.FormatJPEG
	o.PNG = f == filehandler.FormatPNG
	o.GIF = f == filehandler.FormatGIF
	o.BMP = f == filehandler.FormatBMP
	o.TIFF = f == filehandler.FormatTIFF
	o.WebP = f == filehandler.FormatWebP
}

// ToJSON encodes the options in the form Decode accepts.
func (o Options) ToJSON() string {
	return jsonutil.MustMarshal(o)
}
