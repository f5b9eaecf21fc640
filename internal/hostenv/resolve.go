package hostenv

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/fpang/stitchy/internal/filehandler"
	"github.com/fpang/stitchy/internal/stitcherr"
)

var (
	// ErrNotDirect is returned for buffers the host cannot expose by address.
	ErrNotDirect = errors.New("buffer is not a direct buffer")
	// ErrBufferTooLarge is returned when a buffer's capacity does not fit in
	// the address space of this process.
	ErrBufferTooLarge = errors.New("buffer capacity exceeds addressable memory")
)

// ResolveFDs extracts a host int array as descriptor inputs. Descriptors are
// not validated here; the first read reports a bad one.
func ResolveFDs(env Env, ref Ref) ([]filehandler.Input, error) {
	fds, err := env.GetIntArray(ref)
	if err != nil {
		return nil, stitcherr.Boundary(err, "failed to read input descriptor array")
	}

	inputs := make([]filehandler.Input, len(fds))
	for i, fd := range fds {
		inputs[i] = filehandler.FromFD(int(fd))
	}
	return inputs, nil
}

// ResolveBuffers extracts a host array of direct buffers as borrowed views.
// The views alias host memory and are valid only until the current call
// returns.
func ResolveBuffers(env Env, ref Ref) ([]filehandler.Input, error) {
	refs, err := env.GetObjectArray(ref)
	if err != nil {
		return nil, stitcherr.Boundary(err, "failed to read input buffer array")
	}

	inputs := make([]filehandler.Input, len(refs))
	for i, bufRef := range refs {
		view, err := BorrowDirectBuffer(env, bufRef)
		if err != nil {
			return nil, stitcherr.Boundary(err, "failed to access input buffer %d", i)
		}
		inputs[i] = filehandler.FromBuffer(view)
	}
	return inputs, nil
}

// BorrowDirectBuffer returns a view over exactly the bytes the host reports
// for a direct buffer. Nothing is copied.
func BorrowDirectBuffer(env Env, ref Ref) ([]byte, error) {
	capacity, err := env.DirectBufferCapacity(ref)
	if err != nil {
		return nil, err
	}
	if capacity < 0 {
		return nil, ErrNotDirect
	}
	if capacity == 0 {
		return []byte{}, nil
	}
	if uint64(capacity) > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes", ErrBufferTooLarge, capacity)
	}

	addr, err := env.DirectBufferAddress(ref)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, ErrNotDirect
	}
	return unsafe.Slice((*byte)(addr), int(capacity)), nil
}

// ResolveStrings reads a host array of strings.
func ResolveStrings(env Env, ref Ref) ([]string, error) {
	refs, err := env.GetObjectArray(ref)
	if err != nil {
		return nil, stitcherr.Boundary(err, "failed to read string array")
	}

	values := make([]string, len(refs))
	for i, r := range refs {
		s, err := env.GetString(r)
		if err != nil {
			return nil, stitcherr.Boundary(err, "failed to read string %d", i)
		}
		values[i] = s
	}
	return values, nil
}

// ResolveOptionalString reads a host string, treating null as "".
func ResolveOptionalString(env Env, ref Ref) (string, error) {
	if ref == NullRef {
		return "", nil
	}
	s, err := env.GetString(ref)
	if err != nil {
		return "", stitcherr.Boundary(err, "failed to read string")
	}
	return s, nil
}
