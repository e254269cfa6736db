// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"time"

	"go.bug.st/serial"
)

const (
	flushBaudRate   = 9600
	flushLineToggle = 100 * time.Millisecond
)

// Flusher drops whatever is buffered on a port before the reset.
type Flusher interface {
	Flush(ctx context.Context, port string) error
}

// SerialFlusher clears the buffers and pulses DTR/RTS.
type SerialFlusher struct {
	clock Clock
	open  portOpener
}

func NewSerialFlusher() *SerialFlusher {
	return &SerialFlusher{clock: SystemClock, open: openSerialLine}
}

func (f *SerialFlusher) Flush(ctx context.Context, port string) error {
	line, err := f.open(port, &serial.Mode{BaudRate: flushBaudRate})
	if err != nil {
		return err
	}
	defer line.Close()

	if err := line.ResetInputBuffer(); err != nil {
		return err
	}

	if err := line.ResetOutputBuffer(); err != nil {
		return err
	}

	if err := setLines(line, false); err != nil {
		return err
	}

	if err := sleepContext(ctx, f.clock, flushLineToggle); err != nil {
		return err
	}

	return setLines(line, true)
}

func setLines(line serialLine, level bool) error {
	if err := line.SetDTR(level); err != nil {
		return err
	}

	return line.SetRTS(level)
}
