// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitNewPortFindsNewPort(t *testing.T) {
	clock := newFakeClock()
	ports := newScriptedEnumerator("A", "B")
	ports.then(NewPortSnapshot("A", "B"), NewPortSnapshot("A", "B"), NewPortSnapshot("A", "B", "C"))

	waiter := &PortWaiter{Enumerator: ports, Interval: 250 * time.Millisecond, Clock: clock}
	start := clock.Now()

	port, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A", "B"), 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "C", port)
	require.Equal(t, 3, ports.callCount())
	require.Less(t, int64(clock.Now().Sub(start)), int64(5*time.Second))
}

func TestAwaitNewPortPicksSmallestName(t *testing.T) {
	ports := newScriptedEnumerator()
	ports.then(NewPortSnapshot("A", "B", "E", "D"))

	waiter := &PortWaiter{Enumerator: ports, Clock: newFakeClock()}

	port, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A", "B"), time.Second)
	require.NoError(t, err)
	require.Equal(t, "D", port)
}

func TestAwaitNewPortIgnoresVanishedPorts(t *testing.T) {
	ports := newScriptedEnumerator()
	ports.then(NewPortSnapshot("B"), NewPortSnapshot(), NewPortSnapshot("A"), NewPortSnapshot("A", "F"))

	waiter := &PortWaiter{Enumerator: ports, Clock: newFakeClock()}

	port, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A", "B"), time.Second)
	require.NoError(t, err)
	require.Equal(t, "F", port)
}

func TestAwaitNewPortTimesOutAfterTimeout(t *testing.T) {
	clock := newFakeClock()
	ports := newScriptedEnumerator("A", "B")

	waiter := &PortWaiter{Enumerator: ports, Interval: 300 * time.Millisecond, Clock: clock}
	start := clock.Now()

	_, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A", "B"), 2*time.Second)
	require.Error(t, err)
	require.True(t, IsUploadError(err, ErrorPortTimeout))

	elapsed := clock.Now().Sub(start)
	require.GreaterOrEqual(t, int64(elapsed), int64(2*time.Second))
	require.Less(t, int64(elapsed), int64(2*time.Second+300*time.Millisecond))

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Equal(t, []string{"A", "B"}, uploadErr.LastPorts)

	for _, sleep := range clock.sleeps {
		require.LessOrEqual(t, int64(sleep), int64(300*time.Millisecond))
	}
}

func TestAwaitNewPortDefaults(t *testing.T) {
	clock := newFakeClock()
	waiter := &PortWaiter{Enumerator: newScriptedEnumerator("A"), Clock: clock}
	start := clock.Now()

	_, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A"), 0)
	require.True(t, IsUploadError(err, ErrorPortTimeout))
	require.Equal(t, DefaultPortTimeout, clock.Now().Sub(start))
	require.Equal(t, DefaultPollInterval, clock.sleeps[0])
}

func TestAwaitNewPortEnumerationError(t *testing.T) {
	ports := newScriptedEnumerator()
	ports.err = newEnumerationError(errors.New("no sysfs"))

	waiter := &PortWaiter{Enumerator: ports, Clock: newFakeClock()}

	_, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot(), time.Second)
	require.True(t, IsUploadError(err, ErrorEnumeration))
	require.Equal(t, 1, ports.callCount())
}

func TestAwaitNewPortCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	waiter := &PortWaiter{Enumerator: newScriptedEnumerator("A"), Clock: stoppedClock{now: time.Now()}}

	_, err := waiter.AwaitNewPort(ctx, NewPortSnapshot("A"), time.Second)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestAwaitNewPortWakesOnDeviceEvent(t *testing.T) {
	events := make(chan struct{}, 1)
	events <- struct{}{}

	ports := newScriptedEnumerator("A")
	ports.then(NewPortSnapshot("A"), NewPortSnapshot("A", "B"))

	waiter := &PortWaiter{Enumerator: ports, Clock: stoppedClock{now: time.Now()}, Events: events}

	port, err := waiter.AwaitNewPort(context.Background(), NewPortSnapshot("A"), time.Second)
	require.NoError(t, err)
	require.Equal(t, "B", port)
}
