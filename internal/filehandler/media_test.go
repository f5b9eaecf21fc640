package filehandler

import (
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".jpeg", true},
		{".JPG", true},
		{".png", true},
		{".PNG", true},
		{".gif", true},
		{".bmp", true},
		{".webp", true},
		{".tif", true},
		{".tiff", true},
		{".heic", false},
		{".mp4", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsImage(tt.ext)
			if result != tt.expected {
				t.Errorf("IsImage(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestFormatFromMediaType(t *testing.T) {
	tests := []struct {
		mediaType string
		expected  Format
	}{
		{"image/jpeg", FormatJPEG},
		{"image/jpg", FormatJPEG},
		{"IMAGE/JPEG", FormatJPEG},
		{" image/png ", FormatPNG},
		{"image/png; charset=binary", FormatPNG},
		{"image/gif", FormatGIF},
		{"image/x-ms-bmp", FormatBMP},
		{"image/webp", FormatWebP},
		{"image/tiff", FormatTIFF},
		{"image/heic", FormatUnknown},
		{"video/mp4", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			if got := FormatFromMediaType(tt.mediaType); got != tt.expected {
				t.Errorf("FormatFromMediaType(%q) = %v, want %v", tt.mediaType, got, tt.expected)
			}
		})
	}
}

func TestFormatRoundTripNames(t *testing.T) {
	for _, f := range []Format{FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatWebP, FormatTIFF} {
		if got := FormatFromDecoderName(f.String()); got != f {
			t.Errorf("FormatFromDecoderName(%q) = %v, want %v", f.String(), got, f)
		}
		if got := FormatFromMediaType(f.MediaType()); got != f {
			t.Errorf("FormatFromMediaType(%q) = %v, want %v", f.MediaType(), got, f)
		}
		if got := FormatFromExtension(f.Extension()); got != f {
			t.Errorf("FormatFromExtension(%q) = %v, want %v", f.Extension(), got, f)
		}
	}
}

func TestFormatUnknown(t *testing.T) {
	if FormatUnknown.Known() {
		t.Error("FormatUnknown.Known() = true")
	}
	if FormatUnknown.MediaType() != "" {
		t.Errorf("FormatUnknown.MediaType() = %q, want empty", FormatUnknown.MediaType())
	}
	if FormatUnknown.String() != "unknown" {
		t.Errorf("FormatUnknown.String() = %q", FormatUnknown.String())
	}
}

func TestGetMIMEType(t *testing.T) {
	mt, err := GetMIMEType(".JPEG")
	if err != nil {
		t.Fatalf("GetMIMEType() error = %v", err)
	}
	if mt != "image/jpeg" {
		t.Errorf("GetMIMEType() = %q, want image/jpeg", mt)
	}

	if _, err := GetMIMEType(".mov"); err == nil {
		t.Error("GetMIMEType(.mov) should fail")
	}
}
