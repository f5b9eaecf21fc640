package output

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x + y) * 2), 255})
		}
	}
	return img
}

func createOutput(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		mediaType string
		want      filehandler.Format
		source    string
	}{
		{"explicit wins over path", "out.png", "image/jpeg", filehandler.FormatJPEG, "media type"},
		{"explicit with parameters", "out", "image/webp; q=1", filehandler.FormatWebP, "media type"},
		{"inferred from path", "out.webp", "", filehandler.FormatWebP, "path"},
		{"unrecognized type falls back to path", "out.bmp", "application/octet-stream", filehandler.FormatBMP, "path"},
		{"uppercase extension", "OUT.TIF", "", filehandler.FormatTIFF, "path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createOutput(t, tt.file)
			target, err := Resolve(int(f.Fd()), tt.mediaType)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if target.Format != tt.want {
				t.Errorf("Format = %v, want %v", target.Format, tt.want)
			}
			if target.Source != tt.source {
				t.Errorf("Source = %q, want %q", target.Source, tt.source)
			}
			if target.FD() != int(f.Fd()) {
				t.Errorf("FD() = %d, want %d", target.FD(), f.Fd())
			}
		})
	}
}

func TestResolveUndeterminedFormat(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		f := createOutput(t, "out.dat")
		_, err := Resolve(int(f.Fd()), "")
		if stitcherr.KindOf(err) != stitcherr.KindFormat {
			t.Fatalf("KindOf() = %v, want format (err = %v)", stitcherr.KindOf(err), err)
		}
		info, err := f.Stat()
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() != 0 {
			t.Errorf("output size = %d, want 0", info.Size())
		}
	})

	t.Run("pipe", func(t *testing.T) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		defer w.Close()

		if _, err := Resolve(int(w.Fd()), "text/plain"); stitcherr.KindOf(err) != stitcherr.KindFormat {
			t.Errorf("KindOf() = %v, want format (err = %v)", stitcherr.KindOf(err), err)
		}
	})

	t.Run("closed descriptor", func(t *testing.T) {
		if _, err := Resolve(1<<20, ""); stitcherr.KindOf(err) != stitcherr.KindFormat {
			t.Errorf("KindOf() = %v, want format (err = %v)", stitcherr.KindOf(err), err)
		}
	})
}

func TestWriteEachFormat(t *testing.T) {
	formats := []filehandler.Format{
		filehandler.FormatJPEG,
		filehandler.FormatPNG,
		filehandler.FormatGIF,
		filehandler.FormatBMP,
		filehandler.FormatTIFF,
		filehandler.FormatWebP,
	}
	img := gradient(32, 24)

	for _, format := range formats {
		t.Run(format.String(), func(t *testing.T) {
			f := createOutput(t, "out"+format.Extension())
			target, err := Resolve(int(f.Fd()), "")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			n, err := target.Write(img, Params{Quality: 80})
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if n == 0 {
				t.Fatal("Write() wrote 0 bytes")
			}

			data, err := os.ReadFile(f.Name())
			if err != nil {
				t.Fatal(err)
			}
			decoded, got, err := filehandler.DecodeImage(bytes.NewReader(data), format.MediaType())
			if err != nil {
				t.Fatalf("written output does not decode as %s: %v", format, err)
			}
			if got != format {
				t.Errorf("decoded format = %v, want %v", got, format)
			}
			if decoded.Bounds().Size() != image.Pt(32, 24) {
				t.Errorf("decoded size = %v, want 32x24", decoded.Bounds().Size())
			}
		})
	}
}

func TestWriteLeavesDescriptorOpen(t *testing.T) {
	f := createOutput(t, "out.png")
	target, err := Resolve(int(f.Fd()), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := target.Write(gradient(4, 4), Params{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := f.Stat(); err != nil {
		t.Errorf("host descriptor closed by Write: %v", err)
	}
}

func TestWriteBadDescriptor(t *testing.T) {
	target := &Target{fd: 1 << 20, Format: filehandler.FormatPNG, Source: "media type"}
	if _, err := target.Write(gradient(4, 4), Params{}); stitcherr.KindOf(err) != stitcherr.KindIO {
		t.Errorf("KindOf() = %v, want io (err = %v)", stitcherr.KindOf(err), err)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, gradient(4, 4), filehandler.FormatUnknown, Params{})
	if stitcherr.KindOf(err) != stitcherr.KindUnclassified {
		t.Errorf("KindOf() = %v, want unclassified (err = %v)", stitcherr.KindOf(err), err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for unknown format", buf.Len())
	}
}

func TestEncodePreferSmall(t *testing.T) {
	img := gradient(128, 128)

	size := func(f filehandler.Format, small bool) int {
		var buf bytes.Buffer
		if err := Encode(&buf, img, f, Params{Quality: 90, PreferSmall: small}); err != nil {
			t.Fatalf("Encode(%v, small=%v) error = %v", f, small, err)
		}
		return buf.Len()
	}

	if small, fast := size(filehandler.FormatPNG, true), size(filehandler.FormatPNG, false); small > fast {
		t.Errorf("png: small output %d bytes > fast output %d bytes", small, fast)
	}
}

func TestEncodeJPEGQuality(t *testing.T) {
	img := gradient(128, 128)

	var low, high bytes.Buffer
	if err := Encode(&low, img, filehandler.FormatJPEG, Params{Quality: 10}); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&high, img, filehandler.FormatJPEG, Params{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	if low.Len() >= high.Len() {
		t.Errorf("quality 10 output %d bytes >= quality 95 output %d bytes", low.Len(), high.Len())
	}
}

func TestGIFOptions(t *testing.T) {
	if got := gifOptions(Params{PreferSmall: true}); got.NumColors != 256 || got.Drawer == nil {
		t.Errorf("gifOptions(small) = %+v", got)
	}
	small := gifOptions(Params{PreferSmall: true}).Drawer
	fast := gifOptions(Params{}).Drawer
	if small == fast {
		t.Error("small and fast GIF encodes use the same drawer")
	}
}
