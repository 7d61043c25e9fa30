// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failures surfaced by the recording service.
type ErrorKind int

const (
	UnsupportedPlatform ErrorKind = iota
	InvalidOutputDir
	InvalidFormat
	Io
	Encoding
	NotFound
	Empty
	Start
	Join
)

// Code returns the stable machine readable code for the kind.
func (k ErrorKind) Code() string {
	switch k {
	case UnsupportedPlatform:
		return "unsupported-platform"
	case InvalidOutputDir:
		return "invalid-output-dir"
	case InvalidFormat:
		return "invalid-format"
	case Io:
		return "io-error"
	case Encoding:
		return "encoding-error"
	case NotFound:
		return "not-found"
	case Empty:
		return "empty-recording"
	case Start:
		return "start-failure"
	case Join:
		return "join-failure"
	}
	return "unknown"
}

// ErrDuplicateSession is the start cause when the id is already recording.
var ErrDuplicateSession = errors.New("duplicate recording id")

// ErrRegistryPoisoned is the start cause once a registry critical section panicked.
var ErrRegistryPoisoned = errors.New("lock poisoned")

// RecordingError renders as "code: message" across the service boundary.
type RecordingError struct {
	Kind   ErrorKind
	Format string // only for InvalidFormat
	Cause  error
}

func (e *RecordingError) Error() string {
	return e.Kind.Code() + ": " + e.Message()
}

// Message is the human readable part of the error.
func (e *RecordingError) Message() string {
	switch e.Kind {
	case UnsupportedPlatform:
		return "unsupported platform"
	case InvalidOutputDir:
		return "invalid output directory"
	case InvalidFormat:
		return fmt.Sprintf("invalid format %s", e.Format)
	case Io:
		return fmt.Sprintf("io error: %v", e.Cause)
	case Encoding:
		return fmt.Sprintf("encoding error: %v", e.Cause)
	case NotFound:
		return "recording not found"
	case Empty:
		return "empty recording"
	case Start:
		return fmt.Sprintf("start failure: %v", e.Cause)
	case Join:
		if e.Cause != nil {
			return fmt.Sprintf("join failure: %v", e.Cause)
		}
		return "join failure"
	}
	return "unknown error"
}

// Code is shorthand for Kind.Code().
func (e *RecordingError) Code() string { return e.Kind.Code() }

func (e *RecordingError) Unwrap() error { return e.Cause }

// Is matches another RecordingError of the same kind, so
// errors.Is(err, &RecordingError{Kind: NotFound}) works.
func (e *RecordingError) Is(target error) bool {
	t, ok := target.(*RecordingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Cause == nil
}

func NewUnsupportedPlatformError() error { return &RecordingError{Kind: UnsupportedPlatform} }

func NewInvalidOutputDirError(cause error) error {
	return &RecordingError{Kind: InvalidOutputDir, Cause: cause}
}

func NewInvalidFormatError(format string) error {
	return &RecordingError{Kind: InvalidFormat, Format: format}
}

func NewIoError(cause error) error { return &RecordingError{Kind: Io, Cause: cause} }

func NewEncodingError(cause error) error { return &RecordingError{Kind: Encoding, Cause: cause} }

// Encodingf builds an Encoding error from a format string, wrapping %w verbs.
func Encodingf(format string, args ...interface{}) error {
	return &RecordingError{Kind: Encoding, Cause: fmt.Errorf(format, args...)}
}

func NewNotFoundError() error { return &RecordingError{Kind: NotFound} }

func NewEmptyError() error { return &RecordingError{Kind: Empty} }

func NewStartError(cause error) error { return &RecordingError{Kind: Start, Cause: cause} }

func NewJoinError(cause error) error { return &RecordingError{Kind: Join, Cause: cause} }

// KindOf extracts the taxonomy kind from anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var re *RecordingError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a RecordingError of kind k.
func IsKind(err error, k ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
