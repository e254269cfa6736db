// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"time"
)

const (
	DefaultPortTimeout  = 5 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
)

// PortWaiter waits for a bootloader port to show up after a reset.
type PortWaiter struct {
	Enumerator PortEnumerator
	Interval   time.Duration
	Clock      Clock

	// Events optionally wakes the poll loop before the interval is over,
	// e.g. from a DeviceWatcher. Polling stays authoritative.
	Events <-chan struct{}
}

// AwaitNewPort polls until a port absent from before appears and returns it.
// If several appear at once the lexicographically smallest name wins. A
// PortTimeoutError is returned once timeout has fully elapsed.
func (w *PortWaiter) AwaitNewPort(ctx context.Context, before PortSnapshot, timeout time.Duration) (string, error) {
	clock := w.Clock
	if clock == nil {
		clock = SystemClock
	}

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if timeout <= 0 {
		timeout = DefaultPortTimeout
	}

	deadline := clock.Now().Add(timeout)
	last := before

	logger.Infof("waiting up to %s for a new upload port...", timeout)

	for polls := 1; ; polls++ {
		now, err := w.Enumerator.List()
		if err != nil {
			return "", err
		}

		if added := now.Difference(before); len(added) > 0 {
			logger.WithField("port", added[0]).Infof("new upload port found after %d polls", polls)

			if len(added) > 1 {
				logger.Warnf("several new ports appeared %v, using %s", added, added[0])
			}

			return added[0], nil
		}

		last = now

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return "", newPortTimeoutError(timeout, last)
		}

		if remaining > interval {
			remaining = interval
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-clock.After(remaining):
		case <-w.Events:
			logger.Trace("device event, polling early")
		}
	}
}
