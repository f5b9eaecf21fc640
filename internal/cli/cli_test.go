package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1200 * time.Millisecond, "1.2s"},
		{0, "0.0s"},
		{61 * time.Second, "1:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	jpg := write("a.JPG")
	png := write("b.png")
	txt := write("notes.txt")

	files, err := ResolveInputs([]string{png, jpg})
	if err != nil {
		t.Fatalf("ResolveInputs() error = %v", err)
	}
	if len(files) != 2 || files[0].MediaType != "image/png" || files[1].MediaType != "image/jpeg" {
		t.Errorf("ResolveInputs() = %+v", files)
	}
	if files[0].Size != 4 || !filepath.IsAbs(files[0].Path) {
		t.Errorf("files[0] = %+v", files[0])
	}

	for _, bad := range [][]string{{txt}, {filepath.Join(dir, "missing.png")}, {dir}} {
		if _, err := ResolveInputs(bad); err == nil {
			t.Errorf("ResolveInputs(%v) should fail", bad)
		}
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := DefaultOutputPath("/photos/trip/IMG_001.jpeg", "png")
	if got != "/photos/trip/IMG_001_stitch.png" {
		t.Errorf("DefaultOutputPath() = %q", got)
	}
}

func TestImagePatterns(t *testing.T) {
	patterns := strings.Join(ImagePatterns(), " ")
	for _, want := range []string{"*.jpg", "*.PNG", "*.webp", "*.TIFF"} {
		if !strings.Contains(patterns, want) {
			t.Errorf("ImagePatterns() missing %s: %s", want, patterns)
		}
	}
}
