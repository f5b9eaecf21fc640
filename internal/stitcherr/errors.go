// Package stitcherr defines the closed error taxonomy of the stitching
// pipeline and the translation of those errors into the single message
// string returned to the host.
//
// Every failure is classified once, at the point where it is first detected,
// and translated once, at the call boundary (pipeline.Run). Nothing between
// those two points inspects or rewrites the kind.
package stitcherr

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure.
type Kind int

const (
	// KindBoundary indicates a failure talking to the host runtime itself:
	// extracting an array, reading a string, acquiring the log sink.
	KindBoundary Kind = iota
	// KindIO indicates a failure reading or writing an underlying handle.
	KindIO
	// KindConfig indicates malformed options text or missing fields.
	KindConfig
	// KindFormat indicates that no output format could be determined.
	KindFormat
	// KindContractMismatch indicates that parallel arrays from the host
	// disagree in length.
	KindContractMismatch
	// KindDecode indicates an input image was rejected by the decoder.
	KindDecode
	// KindEncode indicates the output image could not be produced.
	KindEncode
	// KindUnclassified covers everything else; its text is surfaced as-is.
	KindUnclassified
)

var kindNames = map[Kind]string{
	KindBoundary:         "boundary",
	KindIO:               "io",
	KindConfig:           "config",
	KindFormat:           "format",
	KindContractMismatch: "contract_mismatch",
	KindDecode:           "decode",
	KindEncode:           "encode",
	KindUnclassified:     "unclassified",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same kind, so callers can
// write errors.Is(err, &stitcherr.Error{Kind: stitcherr.KindConfig}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// New returns a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. If err is already classified, it is returned with its
// original kind; classification happens once, at first detection.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Boundary classifies a host-runtime failure.
func Boundary(err error, format string, args ...any) error {
	return Wrap(KindBoundary, err, format, args...)
}

// IO classifies a handle read/write failure.
func IO(err error, format string, args ...any) error {
	return Wrap(KindIO, err, format, args...)
}

// KindOf returns the kind of err, or KindUnclassified when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}
