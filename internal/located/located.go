// Package located pairs resolved input handles with the media types the host
// declared for them.
package located

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

// Image is one input ready for composition.
type Image struct {
	Source     filehandler.Input
	MediaType  string
	ObservedAt time.Time
}

// Reporter receives one progress message per accepted input.
type Reporter interface {
	Log(message string) error
}

// Build pairs inputs[i] with mediaTypes[i]. The two sequences come from
// separate host arrays; if their lengths differ the host and this side
// disagree about the call, and nothing is returned.
//
// observedAt is taken once per call by the caller and shared by every image.
// Each input is opened once here to report its size, which is where a bad
// descriptor first surfaces.
func Build(inputs []filehandler.Input, mediaTypes []string, observedAt time.Time, reporter Reporter) ([]Image, error) {
	if len(inputs) != len(mediaTypes) {
		return nil, stitcherr.New(stitcherr.KindContractMismatch,
			"%d inputs but %d media types", len(inputs), len(mediaTypes))
	}

	images := make([]Image, 0, len(inputs))
	for i, in := range inputs {
		size, details, err := inspect(in)
		if err != nil {
			return nil, stitcherr.IO(err, "failed to access input %d (%s)", i, in)
		}

		images = append(images, Image{
			Source:     in,
			MediaType:  mediaTypes[i],
			ObservedAt: observedAt,
		})

		msg := fmt.Sprintf("File added: %s, %s, %d bytes", in, mediaTypes[i], size)
		if details != "" {
			msg += ", " + details
		}
		if err := reporter.Log(msg); err != nil {
			return nil, err
		}
	}

	return images, nil
}

// inspect reports the input's size and, when available, a short EXIF
// summary. Metadata failures are not errors; most inputs carry none.
func inspect(in filehandler.Input) (int64, string, error) {
	r, err := in.Open()
	if err != nil {
		return 0, "", err
	}
	defer r.Close()

	meta, err := filehandler.ExtractImageMetadata(r)
	if err != nil {
		log.Debug().Err(err).Str("input", in.String()).Msg("No EXIF metadata")
		return r.Size(), "", nil
	}
	return r.Size(), meta.Summary(), nil
}
