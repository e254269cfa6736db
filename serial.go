// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"

	"go.bug.st/serial"
)

// serialLine is the part of serial.Port the reset and flush steps use.
type serialLine interface {
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	Close() error
}

type portOpener func(name string, mode *serial.Mode) (serialLine, error)

func openSerialLine(name string, mode *serial.Mode) (serialLine, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// errnos that mean the device node is gone or going away
var disconnectErrnos = []syscall.Errno{syscall.ENODEV, syscall.ENXIO, syscall.EIO}

// isDisconnect reports whether err means the device went away, which is
// what a bootloader reset looks like from the host side.
func isDisconnect(err error) bool {
	if err == nil {
		return false
	}

	var portErr *serial.PortError

	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed:
			return true
		case serial.InvalidSerialPort:
			// the library keeps the cause unexported, only its text survives
			return hasDisconnectCause(portErr.Error())
		}
	}

	if errors.Is(err, os.ErrNotExist) || errors.Is(err, io.EOF) {
		return true
	}

	for _, errno := range disconnectErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	return false
}

func hasDisconnectCause(msg string) bool {
	for _, errno := range disconnectErrnos {
		if strings.HasSuffix(msg, ": "+errno.Error()) {
			return true
		}
	}

	return false
}
