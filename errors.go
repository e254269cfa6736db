// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type UploadErrorCode int

const (
	ErrorConfiguration UploadErrorCode = iota + 1
	ErrorEnumeration
	ErrorPortTimeout
	ErrorUploaderExit
	ErrorPortAccess
	ErrorPortBusy
)

func (c UploadErrorCode) String() string {
	switch c {
	case ErrorConfiguration:
		return "configuration error"
	case ErrorEnumeration:
		return "enumeration error"
	case ErrorPortTimeout:
		return "port timeout"
	case ErrorUploaderExit:
		return "uploader exit error"
	case ErrorPortAccess:
		return "port access error"
	case ErrorPortBusy:
		return "port busy"
	default:
		return fmt.Sprintf("unknown error code %d", int(c))
	}
}

// UploadError is the single error type surfaced at the invocation boundary.
// Only the fields relevant to Code are populated.
type UploadError struct {
	errorString string

	Code UploadErrorCode

	// Port is the serial port the failure relates to, if any.
	Port string
	// LastPorts is the last port list seen before a port timeout.
	LastPorts []string
	// ExitCode and Stderr describe a failed uploader run.
	ExitCode int
	Stderr   string

	cause error
}

func (e *UploadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.errorString, e.cause)
	}

	return e.errorString
}

func (e *UploadError) Unwrap() error {
	return e.cause
}

// IsUploadError reports whether err (or anything it wraps) is an UploadError with the given code.
func IsUploadError(err error, code UploadErrorCode) bool {
	var uploadErr *UploadError

	if errors.As(err, &uploadErr) {
		return uploadErr.Code == code
	}

	return false
}

func newConfigurationError(msg string, cause error) error {
	return &UploadError{errorString: msg, Code: ErrorConfiguration, cause: cause}
}

func newEnumerationError(cause error) error {
	return &UploadError{errorString: "could not list serial ports", Code: ErrorEnumeration, cause: cause}
}

func newPortTimeoutError(timeout time.Duration, last PortSnapshot) error {
	names := last.Names()

	return &UploadError{
		errorString: fmt.Sprintf("no new upload port appeared within %s (ports: [%s])",
			timeout, strings.Join(names, ", ")),
		Code:      ErrorPortTimeout,
		LastPorts: names,
	}
}

func newUploaderExitError(command string, exitCode int, stderr string) error {
	msg := fmt.Sprintf("%s exited with status %d", command, exitCode)

	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		msg = fmt.Sprintf("%s: %s", msg, trimmed)
	}

	return &UploadError{errorString: msg, Code: ErrorUploaderExit, ExitCode: exitCode, Stderr: stderr}
}

func newPortAccessError(port string, cause error) error {
	return &UploadError{errorString: fmt.Sprintf("could not access port %s", port), Code: ErrorPortAccess,
		Port: port, cause: cause}
}

func newPortBusyError(port string) error {
	return &UploadError{errorString: fmt.Sprintf("another upload is already running on port %s", port),
		Code: ErrorPortBusy, Port: port}
}
