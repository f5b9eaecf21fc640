package filehandler

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// InputKind discriminates the two handle shapes the host can pass.
type InputKind int

const (
	// KindFD is a raw file descriptor owned by the host.
	KindFD InputKind = iota
	// KindBuffer is a span of host-owned memory, valid for one call.
	KindBuffer
)

// Input is a borrowed reference to host-owned image bytes.
//
// A KindBuffer input aliases memory the host frees after the call returns.
// Inputs must therefore live only on the call stack of a single stitch call;
// nothing that outlives the call may hold one.
type Input struct {
	kind    InputKind
	fd      int
	buf     []byte
	drained *streamed
}

// streamed holds the bytes of a pipe or socket descriptor, which can only be
// read once. Copies of an Input share it.
type streamed struct {
	data []byte
	err  error
	done bool
}

// FromFD wraps a host descriptor. No validation happens here; the descriptor
// is first touched by Open.
func FromFD(fd int) Input {
	return Input{kind: KindFD, fd: fd, drained: &streamed{}}
}

// FromBuffer wraps a borrowed view of host memory without copying it.
func FromBuffer(b []byte) Input {
	return Input{kind: KindBuffer, buf: b}
}

// Kind returns the handle shape.
func (in Input) Kind() InputKind {
	return in.kind
}

// FD returns the raw descriptor of a KindFD input, or -1.
func (in Input) FD() int {
	if in.kind != KindFD {
		return -1
	}
	return in.fd
}

func (in Input) String() string {
	if in.kind == KindBuffer {
		return fmt.Sprintf("buffer(%d bytes)", len(in.buf))
	}
	return fmt.Sprintf("fd %d", in.fd)
}

// Reader reads an opened Input. Positional reads are used for descriptors,
// so the host's file offset is left untouched.
type Reader struct {
	*io.SectionReader
	file *os.File
}

// Close releases what Open acquired. The host's own descriptor stays open.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func memReader(b []byte) *Reader {
	return &Reader{SectionReader: io.NewSectionReader(bytes.NewReader(b), 0, int64(len(b)))}
}

// Open materializes the input for reading. For descriptors the host fd is
// duplicated and only the duplicate is ever closed. Open may be called more
// than once; a pipe or socket is drained on the first call and later calls
// read the same bytes.
func (in Input) Open() (*Reader, error) {
	if in.kind == KindBuffer {
		return memReader(in.buf), nil
	}
	if in.drained != nil && in.drained.done {
		if in.drained.err != nil {
			return nil, in.drained.err
		}
		return memReader(in.drained.data), nil
	}

	f, err := DupFile(in.fd, fmt.Sprintf("input-fd-%d", in.fd))
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat fd %d: %w", in.fd, err)
	}

	if !info.Mode().IsRegular() {
		// Pipes and sockets cannot be read positionally; drain once instead.
		log.Debug().Int("fd", in.fd).Str("mode", info.Mode().String()).Msg("Input is not a regular file, reading sequentially")
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			err = fmt.Errorf("failed to read fd %d: %w", in.fd, err)
		}
		if in.drained != nil {
			in.drained.data, in.drained.err, in.drained.done = data, err, true
		}
		if err != nil {
			return nil, err
		}
		return memReader(data), nil
	}

	return &Reader{
		SectionReader: io.NewSectionReader(f, 0, info.Size()),
		file:          f,
	}, nil
}

// DupFile duplicates a host descriptor and wraps the duplicate in an
// *os.File. Closing the returned file never closes fd itself.
func DupFile(fd int, name string) (*os.File, error) {
	if fd < 0 {
		return nil, fmt.Errorf("invalid file descriptor %d", fd)
	}
	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate fd %d: %w", fd, err)
	}
	unix.CloseOnExec(dup)
	return os.NewFile(uintptr(dup), name), nil
}
