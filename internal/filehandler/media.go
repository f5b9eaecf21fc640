// Package filehandler provides the raster formats the stitcher understands,
// borrowed input handles (file descriptors and host buffers), image decoding
// and best-effort EXIF metadata extraction.
//
// Formats are identified three ways, and all three map onto the same closed
// Format set:
//   - declared media types supplied by the host ("image/jpeg")
//   - file extensions (".jpg"), used when a sink's type must be inferred
//   - decoder names reported by image.Decode ("jpeg")
package filehandler

import (
	"fmt"
	"strings"
)

// Format is a raster image format the pipeline can decode and encode.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatBMP
	FormatWebP
	FormatTIFF
)

type formatInfo struct {
	name      string // as reported by image.Decode
	mediaType string
	extension string
}

var formats = map[Format]formatInfo{
	FormatJPEG: {"jpeg", "image/jpeg", ".jpg"},
	FormatPNG:  {"png", "image/png", ".png"},
	FormatGIF:  {"gif", "image/gif", ".gif"},
	FormatBMP:  {"bmp", "image/bmp", ".bmp"},
	FormatWebP: {"webp", "image/webp", ".webp"},
	FormatTIFF: {"tiff", "image/tiff", ".tiff"},
}

// SupportedImageExtensions maps file extensions to the format they denote.
var SupportedImageExtensions = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".jpe":  FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".dib":  FormatBMP,
	".webp": FormatWebP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// mediaTypeAliases covers the non-canonical media types seen from Android
// content resolvers and desktop MIME databases.
var mediaTypeAliases = map[string]Format{
	"image/jpeg":     FormatJPEG,
	"image/jpg":      FormatJPEG,
	"image/pjpeg":    FormatJPEG,
	"image/png":      FormatPNG,
	"image/x-png":    FormatPNG,
	"image/gif":      FormatGIF,
	"image/bmp":      FormatBMP,
	"image/x-bmp":    FormatBMP,
	"image/x-ms-bmp": FormatBMP,
	"image/webp":     FormatWebP,
	"image/tiff":     FormatTIFF,
	"image/tiff-fx":  FormatTIFF,
}

// String returns the decoder name of the format ("jpeg", "png", ...).
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return "unknown"
}

// MediaType returns the canonical media type, or "" for FormatUnknown.
func (f Format) MediaType() string {
	return formats[f].mediaType
}

// Extension returns the canonical file extension including the dot.
func (f Format) Extension() string {
	return formats[f].extension
}

// Known reports whether f is one of the supported formats.
func (f Format) Known() bool {
	_, ok := formats[f]
	return ok
}

// FormatFromMediaType resolves a declared media type. Parameters after ';'
// and letter case are ignored. Unrecognized types yield FormatUnknown.
func FormatFromMediaType(mediaType string) Format {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mediaTypeAliases[mt]
}

// FormatFromExtension resolves a file extension such as ".PNG".
func FormatFromExtension(ext string) Format {
	return SupportedImageExtensions[strings.ToLower(ext)]
}

// FormatFromDecoderName resolves the name returned by image.Decode.
func FormatFromDecoderName(name string) Format {
	for f, info := range formats {
		if info.name == name {
			return f
		}
	}
	return FormatUnknown
}

// GetMIMEType returns the media type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	f := FormatFromExtension(ext)
	if f == FormatUnknown {
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}
	return f.MediaType(), nil
}

// IsImage returns true if the file extension corresponds to a supported image.
func IsImage(ext string) bool {
	return FormatFromExtension(ext) != FormatUnknown
}
