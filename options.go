// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import "time"

// Option configures an Uploader.
type Option func(*Uploader)

// WithBoardLookup replaces the built-in board table.
func WithBoardLookup(lookup BoardLookup) Option {
	return func(u *Uploader) {
		u.boards = lookup
	}
}

func WithToolPaths(tools ToolPaths) Option {
	return func(u *Uploader) {
		u.tools = tools
	}
}

func WithEnumerator(enumerator PortEnumerator) Option {
	return func(u *Uploader) {
		u.enumerator = enumerator
	}
}

// WithPortDetector sets the source used to pick a port when none is given.
// A nil detector disables autodetection.
func WithPortDetector(detector PortDetector) Option {
	return func(u *Uploader) {
		u.detector = detector
	}
}

func WithToucher(toucher Toucher) Option {
	return func(u *Uploader) {
		u.toucher = toucher
	}
}

func WithFlusher(flusher Flusher) Option {
	return func(u *Uploader) {
		u.flusher = flusher
	}
}

func WithRunner(runner Runner) Option {
	return func(u *Uploader) {
		u.runner = runner
	}
}

// WithProbeDetector enables the debug probe check for debug-probe boards.
func WithProbeDetector(probes ProbeDetector) Option {
	return func(u *Uploader) {
		u.probes = probes
	}
}

func WithClock(clock Clock) Option {
	return func(u *Uploader) {
		if clock != nil {
			u.clock = clock
		}
	}
}

// WithPortTimeout bounds the wait for the bootloader port. Default is 5s.
func WithPortTimeout(timeout time.Duration) Option {
	return func(u *Uploader) {
		if timeout > 0 {
			u.portTimeout = timeout
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(u *Uploader) {
		if interval > 0 {
			u.pollInterval = interval
		}
	}
}

// WithDeviceEvents wakes the port wait early, see DeviceWatcher.
func WithDeviceEvents(events <-chan struct{}) Option {
	return func(u *Uploader) {
		u.deviceEvents = events
	}
}

// WithExtraFlags adds arguments to every uploader invocation.
func WithExtraFlags(flags []string) Option {
	return func(u *Uploader) {
		u.extraFlags = append([]string(nil), flags...)
	}
}

func WithStateCallback(callback StateCallback) Option {
	return func(u *Uploader) {
		u.onState = callback
	}
}
