package filehandler

import (
	"io"
	"os"
	"testing"
)

func TestBufferInputOpen(t *testing.T) {
	data := []byte("host-owned bytes")
	in := FromBuffer(data)

	if in.Kind() != KindBuffer {
		t.Fatalf("Kind() = %v, want KindBuffer", in.Kind())
	}
	if in.FD() != -1 {
		t.Errorf("FD() = %d, want -1", in.FD())
	}

	r, err := in.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if r.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", r.Size(), len(data))
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("read %q, want %q", got, data)
	}
}

func TestFDInputLeavesHostDescriptorOpen(t *testing.T) {
	f := writeTempFile(t, "input.bin", []byte("0123456789"))
	fd := int(f.Fd())

	in := FromFD(fd)
	if in.Kind() != KindFD || in.FD() != fd {
		t.Fatalf("FromFD() = %v", in)
	}

	r, err := in.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if r.Size() != 10 {
		t.Errorf("Size() = %d, want 10", r.Size())
	}
	buf := make([]byte, 4)
	if _, err := r.ReadAt(buf, 3); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if string(buf) != "3456" {
		t.Errorf("ReadAt() = %q, want 3456", buf)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The host descriptor must still be usable and its offset unchanged.
	head := make([]byte, 2)
	if _, err := f.Read(head); err != nil {
		t.Fatalf("host descriptor unusable after Close: %v", err)
	}
	if string(head) != "01" {
		t.Errorf("host offset moved: read %q, want 01", head)
	}
}

func TestFDInputInvalidDescriptor(t *testing.T) {
	tests := []struct {
		name string
		fd   int
	}{
		{"negative", -1},
		{"closed", 1 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromFD(tt.fd).Open(); err == nil {
				t.Errorf("Open() on fd %d should fail", tt.fd)
			}
		})
	}
}

func TestInputString(t *testing.T) {
	if got := FromFD(7).String(); got != "fd 7" {
		t.Errorf("String() = %q", got)
	}
	if got := FromBuffer(make([]byte, 3)).String(); got != "buffer(3 bytes)" {
		t.Errorf("String() = %q", got)
	}
}

func TestFDInputPipeReadTwice(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	data := []byte("streamed image bytes")
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	w.Close()

	in := FromFD(int(r.Fd()))
	for pass := 1; pass <= 2; pass++ {
		rd, err := in.Open()
		if err != nil {
			t.Fatalf("pass %d: Open() error = %v", pass, err)
		}
		got, err := io.ReadAll(rd)
		rd.Close()
		if err != nil {
			t.Fatalf("pass %d: ReadAll() error = %v", pass, err)
		}
		if string(got) != string(data) {
			t.Errorf("pass %d: read %q, want %q", pass, got, data)
		}
		if rd.Size() != int64(len(data)) {
			t.Errorf("pass %d: Size() = %d, want %d", pass, rd.Size(), len(data))
		}
	}
}
