// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"runtime"
	"time"

	"go.bug.st/serial"
)

const (
	TouchBaudRate      = 1200
	DefaultTouchSettle = 500 * time.Millisecond
)

// Toucher signals a bootloader to reset by opening and closing its port.
type Toucher interface {
	Touch(ctx context.Context, port string, baudRate int) error
}

// SerialToucher performs the touch on a real serial device.
type SerialToucher struct {
	// SettleDelay is waited after the port is closed. Enumerating too early
	// may assert DTR again and cancel the reset.
	SettleDelay time.Duration

	clock Clock
	open  portOpener
}

func NewSerialToucher(settleDelay time.Duration) *SerialToucher {
	return &SerialToucher{
		SettleDelay: settleDelay,
		clock:       SystemClock,
		open:        openSerialLine,
	}
}

func (t *SerialToucher) Touch(ctx context.Context, port string, baudRate int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := logger.WithField("port", port)
	log.Infof("touching port at %d bps", baudRate)

	line, err := t.open(port, &serial.Mode{BaudRate: baudRate})

	if err != nil {
		if isDisconnect(err) {
			log.Debugf("port disappeared while opening, assuming reset: %v", err)
			return t.settle(ctx)
		}

		return newPortAccessError(port, err)
	}

	if err := ctx.Err(); err != nil {
		line.Close()
		return err
	}

	if runtime.GOOS != "windows" {
		if err := line.SetDTR(false); err != nil && !isDisconnect(err) {
			line.Close()
			return newPortAccessError(port, err)
		}
	}

	if err := line.Close(); err != nil {
		log.Debugf("closing touched port: %v", err)
	}

	return t.settle(ctx)
}

func (t *SerialToucher) settle(ctx context.Context) error {
	return sleepContext(ctx, t.clock, t.SettleDelay)
}
