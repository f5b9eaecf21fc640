package output

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// GIF encoder speeds: 1 spends time on dithering, 10 maps straight to the
// nearest palette colour.
const (
	gifSpeedSmall = 1
	gifSpeedFast  = 10
)

// Params are the encoder knobs taken from the call options.
type Params struct {
	// Quality applies to JPEG only, 1-100.
	Quality int
	// PreferSmall trades encode time for output size where the format allows.
	PreferSmall bool
}

// Write encodes img for the target and writes it to the host descriptor in
// one call. Nothing is written if encoding fails. It returns the number of
// bytes written.
func (t *Target) Write(img image.Image, p Params) (int, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, t.Format, p); err != nil {
		return 0, err
	}

	f, err := filehandler.DupFile(t.FD(), fmt.Sprintf("output-fd-%d", t.FD()))
	if err != nil {
		return 0, stitcherr.IO(err, "failed to open output")
	}
	defer f.Close()

	n, err := f.Write(buf.Bytes())
	if err != nil {
		return n, stitcherr.IO(err, "failed to write %d bytes to output fd %d", buf.Len(), t.FD())
	}

	log.Debug().
		Int("fd", t.FD()).
		Str("format", t.Format.String()).
		Str("format_source", t.Source).
		Int("bytes", n).
		Msg("Output written")
	return n, nil
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f filehandler.Format, p Params) error {
	var err error
	switch f {
	case filehandler.FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: p.Quality})
	case filehandler.FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if p.PreferSmall {
			enc.CompressionLevel = png.BestCompression
		}
		err = enc.Encode(w, img)
	case filehandler.FormatGIF:
		err = gif.Encode(w, img, gifOptions(p))
	case filehandler.FormatBMP:
		err = bmp.Encode(w, img)
	case filehandler.FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case filehandler.FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: true})
	default:
		return stitcherr.New(stitcherr.KindUnclassified, "no encoder for output format %s", f)
	}

	if err != nil {
		return stitcherr.Wrap(stitcherr.KindEncode, err, "failed to encode %s", f)
	}
	return nil
}

func gifOptions(p Params) *gif.Options {
	speed := gifSpeedFast
	if p.PreferSmall {
		speed = gifSpeedSmall
	}

	opts := &gif.Options{NumColors: 256}
	if speed < gifSpeedFast {
		opts.Drawer = draw.FloydSteinberg
	} else {
		opts.Drawer = draw.Src
	}
	return opts
}
