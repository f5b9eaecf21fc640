//go:build android || jni

package main

/*
#include <stdlib.h>
#include "jni_shims.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/fpang/stitchy/internal/hostenv"
)

// Android's log facility: android.util.Log.d(String tag, String msg).
const (
	logClass     = "android/util/Log"
	logMethod    = "d"
	logSignature = "(Ljava/lang/String;Ljava/lang/String;)I"
)

var errJavaException = errors.New("java exception pending")

// jniEnv implements hostenv.Env over a JNIEnv for the duration of one call.
// Local references it creates are released when the call returns.
type jniEnv struct {
	env    *C.JNIEnv
	locals []C.jobject
}

var _ hostenv.Env = (*jniEnv)(nil)

func (e *jniEnv) check(op string) error {
	if C.stitchy_exception_pending(e.env) == C.JNI_TRUE {
		return fmt.Errorf("%s: %w", op, errJavaException)
	}
	return nil
}

func (e *jniEnv) keep(o C.jobject) {
	if o != nil {
		e.locals = append(e.locals, o)
	}
}

func (e *jniEnv) releaseLocals() {
	for _, o := range e.locals {
		C.stitchy_delete_local_ref(e.env, o)
	}
	e.locals = nil
}

func (e *jniEnv) GetString(r hostenv.Ref) (string, error) {
	if r == hostenv.NullRef {
		return "", errors.New("null string")
	}
	s := C.jstring(obj(r))
	chars := C.stitchy_string_chars(e.env, s)
	if chars == nil {
		if err := e.check("GetStringUTFChars"); err != nil {
			return "", err
		}
		return "", errors.New("GetStringUTFChars returned null")
	}
	defer C.stitchy_release_string_chars(e.env, s, chars)
	return C.GoString(chars), nil
}

func (e *jniEnv) GetIntArray(r hostenv.Ref) ([]int32, error) {
	if r == hostenv.NullRef {
		return nil, errors.New("null int array")
	}
	a := C.jintArray(obj(r))
	n := int(C.stitchy_array_length(e.env, C.jarray(a)))
	if err := e.check("GetArrayLength"); err != nil {
		return nil, err
	}
	values := make([]int32, n)
	if n == 0 {
		return values, nil
	}
	C.stitchy_int_array_region(e.env, a, C.jsize(n), (*C.jint)(unsafe.Pointer(&values[0])))
	if err := e.check("GetIntArrayRegion"); err != nil {
		return nil, err
	}
	return values, nil
}

func (e *jniEnv) GetObjectArray(r hostenv.Ref) ([]hostenv.Ref, error) {
	if r == hostenv.NullRef {
		return nil, errors.New("null object array")
	}
	a := C.jobjectArray(obj(r))
	n := int(C.stitchy_array_length(e.env, C.jarray(a)))
	if err := e.check("GetArrayLength"); err != nil {
		return nil, err
	}
	refs := make([]hostenv.Ref, n)
	for i := 0; i < n; i++ {
		o := C.stitchy_object_element(e.env, a, C.jsize(i))
		if err := e.check("GetObjectArrayElement"); err != nil {
			return nil, err
		}
		e.keep(o)
		refs[i] = ref(o)
	}
	return refs, nil
}

func (e *jniEnv) DirectBufferAddress(r hostenv.Ref) (unsafe.Pointer, error) {
	if r == hostenv.NullRef {
		return nil, errors.New("null buffer")
	}
	return C.stitchy_buffer_address(e.env, obj(r)), nil
}

func (e *jniEnv) DirectBufferCapacity(r hostenv.Ref) (int64, error) {
	if r == hostenv.NullRef {
		return 0, errors.New("null buffer")
	}
	return int64(C.stitchy_buffer_capacity(e.env, obj(r))), nil
}

func (e *jniEnv) LogSink(tag string) (hostenv.LogSink, error) {
	cname := C.CString(logClass)
	defer C.free(unsafe.Pointer(cname))
	cls := C.stitchy_find_class(e.env, cname)
	if err := e.check("FindClass " + logClass); err != nil {
		return nil, err
	}
	if cls == nil {
		return nil, fmt.Errorf("class %s not found", logClass)
	}
	e.keep(C.jobject(cls))

	cmethod := C.CString(logMethod)
	defer C.free(unsafe.Pointer(cmethod))
	csig := C.CString(logSignature)
	defer C.free(unsafe.Pointer(csig))
	method := C.stitchy_static_method(e.env, cls, cmethod, csig)
	if err := e.check("GetStaticMethodID Log.d"); err != nil {
		return nil, err
	}
	if method == nil {
		return nil, errors.New("method Log.d not found")
	}

	jtag, err := e.newString(tag)
	if err != nil {
		return nil, err
	}
	e.keep(C.jobject(jtag))

	return &androidLog{env: e, cls: cls, method: method, tag: jtag}, nil
}

func (e *jniEnv) newString(s string) (C.jstring, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	js := C.stitchy_new_string(e.env, cs)
	if err := e.check("NewStringUTF"); err != nil {
		return nil, err
	}
	if js == nil {
		return nil, errors.New("NewStringUTF returned null")
	}
	return js, nil
}

// androidLog writes through android.util.Log.d.
type androidLog struct {
	env    *jniEnv
	cls    C.jclass
	method C.jmethodID
	tag    C.jstring
}

func (l *androidLog) Debug(message string) error {
	msg, err := l.env.newString(message)
	if err != nil {
		return err
	}
	defer C.stitchy_delete_local_ref(l.env.env, C.jobject(msg))

	C.stitchy_call_log(l.env.env, l.cls, l.method, l.tag, msg)
	return l.env.check("Log.d")
}
