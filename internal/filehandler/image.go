package filehandler

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedMediaType is returned when a declared media type is not
	// one of the supported raster formats.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrFormatMismatch is returned when the bytes decode as a different
	// format than the one declared by the host.
	ErrFormatMismatch = errors.New("decoded format does not match declared media type")
)

// DecodeImage decodes r and checks the detected format against the media
// type the host declared for it.
func DecodeImage(r io.Reader, declaredMediaType string) (image.Image, Format, error) {
	declared := FormatFromMediaType(declaredMediaType)
	if declared == FormatUnknown {
		return nil, FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, declaredMediaType)
	}

	img, name, err := image.Decode(r)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("failed to decode %s image: %w", declared, err)
	}

	detected := FormatFromDecoderName(name)
	if detected != declared {
		return nil, detected, fmt.Errorf("%w: declared %s, found %s", ErrFormatMismatch, declaredMediaType, name)
	}

	return img, detected, nil
}

// ImageMetadata is the subset of EXIF metadata reported in diagnostics.
type ImageMetadata struct {
	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string
}

// ExtractImageMetadata reads EXIF metadata using the imagemeta library.
// Only metadata bytes are read, not the whole image.
//
// Date priority: DateTimeOriginal > CreateDate > ModifyDate.
func ExtractImageMetadata(r io.ReadSeeker) (meta *ImageMetadata, err error) {
	defer func() {
		// imagemeta walks untrusted container structures; a malformed file
		// must not take the call down with it.
		if p := recover(); p != nil {
			meta, err = nil, fmt.Errorf("metadata parser panic: %v", p)
		}
	}()

	exifData, err := imagemeta.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	if !exifData.DateTimeOriginal().IsZero() {
		metadata.DateTaken = exifData.DateTimeOriginal()
		metadata.HasDate = true
	} else if !exifData.CreateDate().IsZero() {
		metadata.DateTaken = exifData.CreateDate()
		metadata.HasDate = true
	} else if !exifData.ModifyDate().IsZero() {
		metadata.DateTaken = exifData.ModifyDate()
		metadata.HasDate = true
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Bool("has_date", metadata.HasDate).
		Str("camera_make", metadata.CameraMake).
		Msg("Image metadata extraction complete")

	return metadata, nil
}

// Summary renders the metadata as a short fragment for diagnostics, e.g.
// "taken 2024-12-31 10:30:00 on Apple iPhone 15". Empty when nothing is known.
func (m *ImageMetadata) Summary() string {
	if m == nil {
		return ""
	}
	var parts []string
	if m.HasDate {
		parts = append(parts, "taken "+m.DateTaken.Format(time.DateTime))
	}
	camera := strings.TrimSpace(m.CameraMake + " " + m.CameraModel)
	if camera != "" {
		parts = append(parts, "on "+camera)
	}
	return strings.Join(parts, " ")
}
