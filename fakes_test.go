// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"sync"
	"time"

	"go.bug.st/serial/enumerator"
)

// fakeClock advances instantly whenever someone waits on it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// stoppedClock never fires, so only events or cancellation wake a waiter.
type stoppedClock struct {
	now time.Time
}

func (c stoppedClock) Now() time.Time                     { return c.now }
func (stoppedClock) After(time.Duration) <-chan time.Time { return nil }

// scriptedEnumerator returns queued snapshots one per call, then keeps
// returning the last one.
type scriptedEnumerator struct {
	mu      sync.Mutex
	current PortSnapshot
	pending []PortSnapshot
	calls   int
	err     error
}

func newScriptedEnumerator(initial ...string) *scriptedEnumerator {
	return &scriptedEnumerator{current: NewPortSnapshot(initial...)}
}

func (e *scriptedEnumerator) then(snapshots ...PortSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, snapshots...)
}

func (e *scriptedEnumerator) List() (PortSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++

	if e.err != nil {
		return PortSnapshot{}, e.err
	}

	if len(e.pending) > 0 {
		e.current = e.pending[0]
		e.pending = e.pending[1:]
	}

	return e.current, nil
}

func (e *scriptedEnumerator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type touchCall struct {
	port string
	baud int
}

type recordingToucher struct {
	calls   []touchCall
	onTouch func()
	err     error
}

func (t *recordingToucher) Touch(ctx context.Context, port string, baudRate int) error {
	t.calls = append(t.calls, touchCall{port, baudRate})

	if t.onTouch != nil {
		t.onTouch()
	}

	return t.err
}

type recordingFlusher struct {
	ports []string
	err   error
}

func (f *recordingFlusher) Flush(ctx context.Context, port string) error {
	f.ports = append(f.ports, port)
	return f.err
}

type recordingRunner struct {
	runs  int
	name  string
	args  []string
	onRun func()
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args []string) error {
	r.runs++
	r.name = name
	r.args = append([]string(nil), args...)

	if r.onRun != nil {
		r.onRun()
	}

	return r.err
}

type staticDetector struct {
	ports []*enumerator.PortDetails
	err   error
}

func (d staticDetector) DetailedPorts() ([]*enumerator.PortDetails, error) {
	return d.ports, d.err
}

type staticProbes struct {
	probes []ProbeInfo
	err    error
	scans  int
}

func (p *staticProbes) FindProbes() ([]ProbeInfo, error) {
	p.scans++
	return p.probes, p.err
}

type mapLookup map[string]BoardConfig

func (m mapLookup) Get(boardId string) (BoardConfig, error) {
	if board, ok := m[boardId]; ok {
		return board, nil
	}
	return BoardConfig{}, newConfigurationError("unknown board "+boardId, nil)
}

// fakeLine records the control line calls of a touch or flush.
type fakeLine struct {
	calls    []string
	dtrErr   error
	closeErr error
}

func (l *fakeLine) SetDTR(dtr bool) error {
	if dtr {
		l.calls = append(l.calls, "dtr+")
	} else {
		l.calls = append(l.calls, "dtr-")
	}
	return l.dtrErr
}

func (l *fakeLine) SetRTS(rts bool) error {
	if rts {
		l.calls = append(l.calls, "rts+")
	} else {
		l.calls = append(l.calls, "rts-")
	}
	return nil
}

func (l *fakeLine) ResetInputBuffer() error {
	l.calls = append(l.calls, "reset-in")
	return nil
}

func (l *fakeLine) ResetOutputBuffer() error {
	l.calls = append(l.calls, "reset-out")
	return nil
}

func (l *fakeLine) Close() error {
	l.calls = append(l.calls, "close")
	return l.closeErr
}
