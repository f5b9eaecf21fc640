package located

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

type recorder struct {
	messages []string
	err      error
}

func (r *recorder) Log(message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

func TestBuildPreservesOrderAndTimestamp(t *testing.T) {
	observed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []filehandler.Input{
		filehandler.FromBuffer([]byte("aaaa")),
		filehandler.FromBuffer([]byte("bb")),
		filehandler.FromBuffer([]byte("cccccc")),
	}
	mediaTypes := []string{"image/jpeg", "image/png", "image/jpeg"}
	rec := &recorder{}

	images, err := Build(inputs, mediaTypes, observed, rec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("len = %d, want 3", len(images))
	}
	for i, img := range images {
		if img.MediaType != mediaTypes[i] {
			t.Errorf("images[%d].MediaType = %q, want %q", i, img.MediaType, mediaTypes[i])
		}
		if !img.ObservedAt.Equal(observed) {
			t.Errorf("images[%d].ObservedAt = %v, want %v", i, img.ObservedAt, observed)
		}
	}

	if len(rec.messages) != 3 {
		t.Fatalf("messages = %v, want one per input", rec.messages)
	}
	if !strings.Contains(rec.messages[1], "image/png, 2 bytes") {
		t.Errorf("messages[1] = %q", rec.messages[1])
	}
}

func TestBuildLengthMismatch(t *testing.T) {
	tests := []struct {
		name       string
		inputs     int
		mediaTypes int
	}{
		{"fewer media types", 3, 2},
		{"more media types", 1, 2},
		{"no media types", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := make([]filehandler.Input, tt.inputs)
			for i := range inputs {
				inputs[i] = filehandler.FromBuffer([]byte("x"))
			}
			mediaTypes := make([]string, tt.mediaTypes)
			rec := &recorder{}

			images, err := Build(inputs, mediaTypes, time.Now(), rec)
			if stitcherr.KindOf(err) != stitcherr.KindContractMismatch {
				t.Fatalf("KindOf() = %v, want contract mismatch (err = %v)", stitcherr.KindOf(err), err)
			}
			if images != nil {
				t.Errorf("partial result returned: %v", images)
			}
			if len(rec.messages) != 0 {
				t.Errorf("diagnostics emitted before failing: %v", rec.messages)
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	images, err := Build(nil, nil, time.Now(), &recorder{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(images) != 0 {
		t.Errorf("len = %d, want 0", len(images))
	}
}

func TestBuildBadDescriptorIsIOError(t *testing.T) {
	inputs := []filehandler.Input{filehandler.FromFD(1 << 20)}
	_, err := Build(inputs, []string{"image/png"}, time.Now(), &recorder{})
	if stitcherr.KindOf(err) != stitcherr.KindIO {
		t.Errorf("KindOf() = %v, want io (err = %v)", stitcherr.KindOf(err), err)
	}
}

func TestBuildReportsDescriptorSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(path, make([]byte, 1234), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rec := &recorder{}
	if _, err := Build([]filehandler.Input{filehandler.FromFD(int(f.Fd()))}, []string{"image/png"}, time.Now(), rec); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(rec.messages) != 1 || !strings.Contains(rec.messages[0], "1234 bytes") {
		t.Errorf("messages = %v", rec.messages)
	}
}

func TestBuildReporterFailurePropagates(t *testing.T) {
	sinkErr := errors.New("sink closed")
	rec := &recorder{err: sinkErr}

	_, err := Build([]filehandler.Input{filehandler.FromBuffer([]byte("x"))}, []string{"image/png"}, time.Now(), rec)
	if !errors.Is(err, sinkErr) {
		t.Errorf("Build() error = %v, want %v", err, sinkErr)
	}
}
