// Package hostenv abstracts the managed host runtime that calls into the
// stitcher: reading its strings and arrays, borrowing its direct buffers and
// writing to its log facility.
//
// Two implementations exist. The JNI one lives in cmd/libstitchy and talks to
// a real JVM; MemEnv is an in-process host used by the desktop CLI and tests.
package hostenv

import "unsafe"

// Ref is an opaque reference to a host object (a JNI local reference, or a
// MemEnv handle). The zero Ref is the host's null.
type Ref uintptr

// NullRef is the host's null reference.
const NullRef Ref = 0

// Env is the set of host operations the pipeline needs. Implementations are
// used from a single goroutine for the duration of one call.
type Env interface {
	// GetString reads a host string as UTF-8.
	GetString(ref Ref) (string, error)

	// GetIntArray copies the elements of a host int array.
	GetIntArray(ref Ref) ([]int32, error)

	// GetObjectArray returns the element references of a host object array.
	GetObjectArray(ref Ref) ([]Ref, error)

	// DirectBufferAddress reports the base address of a direct buffer, or
	// nil when the buffer is not backed by native memory.
	DirectBufferAddress(ref Ref) (unsafe.Pointer, error)

	// DirectBufferCapacity reports the length in bytes of a direct buffer,
	// or -1 when the object is not a direct buffer.
	DirectBufferCapacity(ref Ref) (int64, error)

	// LogSink acquires the host's log facility bound to tag.
	LogSink(tag string) (LogSink, error)
}

// LogSink is the host's one-way diagnostic channel.
type LogSink interface {
	Debug(message string) error
}
