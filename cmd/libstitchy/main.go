//go:build android || jni

// Package main builds libstitchy, the native library the Android app loads.
//
//	go build -buildmode=c-shared -tags jni -o libstitchy.so ./cmd/libstitchy
//
// Android builds pick up jni.h from the NDK sysroot; desktop builds with the
// jni tag need CGO_CFLAGS="-I$JAVA_HOME/include -I$JAVA_HOME/include/linux".
package main

/*
#include <stdlib.h>
#include "jni_shims.h"
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/fpang/stitchy/internal/hostenv"
	"github.com/fpang/stitchy/internal/logging"
	"github.com/fpang/stitchy/internal/pipeline"
)

// Set at build time with -ldflags "-X main.commitHash=... -X main.buildTime=...".
var (
	commitHash = "dev"
	buildTime  = ""
)

func main() {}

//export JNI_OnLoad
func JNI_OnLoad(vm *C.JavaVM, reserved unsafe.Pointer) C.jint {
	start := time.Now()
	logging.Init(logging.EnvOrDefault("STITCHY_LOG_FILE", ""))
	logging.NewStartupLogger("libstitchy").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Formats("jpeg", "png", "gif", "bmp", "tiff", "webp").
		Config("logTag", hostenv.Tag).
		InitDuration(time.Since(start)).
		Log()
	return C.JNI_VERSION_1_6
}

//export Java_com_shininggrimace_stitchy_MainActivity_runStitchy
func Java_com_shininggrimace_stitchy_MainActivity_runStitchy(
	env *C.JNIEnv,
	_ C.jclass,
	config C.jstring,
	inputFds C.jintArray,
	inputMimeTypes C.jobjectArray,
	outputFd C.jint,
	outputMimeType C.jstring,
) C.jstring {
	return run(env, pipeline.Request{
		Options:         ref(C.jobject(config)),
		InputKind:       pipeline.FileDescriptors,
		Inputs:          ref(C.jobject(inputFds)),
		InputMediaTypes: ref(C.jobject(inputMimeTypes)),
		OutputFD:        int32(outputFd),
		OutputMediaType: ref(C.jobject(outputMimeType)),
	})
}

//export Java_com_shininggrimace_stitchy_MainActivity_runStitchyBuffers
func Java_com_shininggrimace_stitchy_MainActivity_runStitchyBuffers(
	env *C.JNIEnv,
	_ C.jclass,
	config C.jstring,
	inputBuffers C.jobjectArray,
	inputMimeTypes C.jobjectArray,
	outputFd C.jint,
	outputMimeType C.jstring,
) C.jstring {
	return run(env, pipeline.Request{
		Options:         ref(C.jobject(config)),
		InputKind:       pipeline.DirectBuffers,
		Inputs:          ref(C.jobject(inputBuffers)),
		InputMediaTypes: ref(C.jobject(inputMimeTypes)),
		OutputFD:        int32(outputFd),
		OutputMediaType: ref(C.jobject(outputMimeType)),
	})
}

// run executes one call and converts the outcome to the Java return value:
// null on success, the failure message otherwise.
func run(env *C.JNIEnv, req pipeline.Request) C.jstring {
	host := &jniEnv{env: env}
	defer host.releaseLocals()

	msg := pipeline.Run(host, req)
	if msg == "" {
		return C.jstring(nil)
	}

	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	return C.stitchy_new_string(env, cmsg)
}

func ref(obj C.jobject) hostenv.Ref {
	return hostenv.Ref(uintptr(unsafe.Pointer(obj)))
}

func obj(r hostenv.Ref) C.jobject {
	return C.jobject(unsafe.Pointer(uintptr(r)))
}
