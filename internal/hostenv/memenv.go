package hostenv

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog/log"
)

type directBuffer struct{ data []byte }

type heapBuffer struct{ data []byte }

// MemEnv is an in-process host. It plays the role the JVM plays for the
// Android app: callers register values, receive Refs and pass those Refs to
// pipeline.Run exactly as the app passes JNI references.
//
// Buffers registered with NewDirectBuffer are lent, not copied, so the
// zero-copy path is the same one the JNI host exercises.
type MemEnv struct {
	objects map[Ref]any
	next    Ref

	// SinkErr, when set, makes LogSink fail with it.
	SinkErr error
	// EmitErr, when set, makes every LogSink.Debug call fail with it.
	EmitErr error

	messages []string
}

var _ Env = (*MemEnv)(nil)

// NewMemEnv creates an empty in-process host.
func NewMemEnv() *MemEnv {
	return &MemEnv{objects: make(map[Ref]any), next: 1}
}

func (e *MemEnv) put(v any) Ref {
	ref := e.next
	e.next++
	e.objects[ref] = v
	return ref
}

// NewString registers a host string.
func (e *MemEnv) NewString(s string) Ref {
	return e.put(s)
}

// NewIntArray registers a host int array.
func (e *MemEnv) NewIntArray(values []int32) Ref {
	return e.put(append([]int32(nil), values...))
}

// NewStringArray registers a host object array of strings.
func (e *MemEnv) NewStringArray(values []string) Ref {
	refs := make([]Ref, len(values))
	for i, v := range values {
		refs[i] = e.NewString(v)
	}
	return e.NewObjectArray(refs)
}

// NewObjectArray registers a host object array.
func (e *MemEnv) NewObjectArray(refs []Ref) Ref {
	return e.put(append([]Ref(nil), refs...))
}

// NewDirectBuffer lends data to the host as a natively backed buffer. The
// caller keeps ownership and must keep data alive until the call returns.
func (e *MemEnv) NewDirectBuffer(data []byte) Ref {
	return e.put(directBuffer{data: data})
}

// NewHeapBuffer registers a buffer whose address the host cannot report,
// the equivalent of a non-direct java.nio.ByteBuffer.
func (e *MemEnv) NewHeapBuffer(data []byte) Ref {
	return e.put(heapBuffer{data: data})
}

// Messages returns every diagnostic emitted through the sink, in order.
func (e *MemEnv) Messages() []string {
	return append([]string(nil), e.messages...)
}

func (e *MemEnv) lookup(ref Ref) (any, error) {
	if ref == NullRef {
		return nil, fmt.Errorf("null reference")
	}
	v, ok := e.objects[ref]
	if !ok {
		return nil, fmt.Errorf("stale reference %d", ref)
	}
	return v, nil
}

// GetString implements Env.
func (e *MemEnv) GetString(ref Ref) (string, error) {
	v, err := e.lookup(ref)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("reference %d is %T, not a string", ref, v)
	}
	return s, nil
}

// GetIntArray implements Env.
func (e *MemEnv) GetIntArray(ref Ref) ([]int32, error) {
	v, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]int32)
	if !ok {
		return nil, fmt.Errorf("reference %d is %T, not an int array", ref, v)
	}
	return append([]int32(nil), a...), nil
}

// GetObjectArray implements Env.
func (e *MemEnv) GetObjectArray(ref Ref) ([]Ref, error) {
	v, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]Ref)
	if !ok {
		return nil, fmt.Errorf("reference %d is %T, not an object array", ref, v)
	}
	return append([]Ref(nil), a...), nil
}

// DirectBufferAddress implements Env.
func (e *MemEnv) DirectBufferAddress(ref Ref) (unsafe.Pointer, error) {
	v, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	switch b := v.(type) {
	case directBuffer:
		if len(b.data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(unsafe.SliceData(b.data)), nil
	case heapBuffer:
		return nil, nil
	default:
		return nil, fmt.Errorf("reference %d is %T, not a buffer", ref, v)
	}
}

// DirectBufferCapacity implements Env.
func (e *MemEnv) DirectBufferCapacity(ref Ref) (int64, error) {
	v, err := e.lookup(ref)
	if err != nil {
		return 0, err
	}
	switch b := v.(type) {
	case directBuffer:
		return int64(len(b.data)), nil
	case heapBuffer:
		return -1, nil
	default:
		return 0, fmt.Errorf("reference %d is %T, not a buffer", ref, v)
	}
}

// LogSink implements Env. Messages are recorded and written to the process
// logger under the given tag.
func (e *MemEnv) LogSink(tag string) (LogSink, error) {
	if e.SinkErr != nil {
		return nil, e.SinkErr
	}
	return &memSink{env: e, tag: tag}, nil
}

type memSink struct {
	env *MemEnv
	tag string
}

func (s *memSink) Debug(message string) error {
	if s.env.EmitErr != nil {
		return s.env.EmitErr
	}
	s.env.messages = append(s.env.messages, message)
	log.Info().Str("tag", s.tag).Msg(message)
	return nil
}
