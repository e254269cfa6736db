// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import "sync"

// ports with an upload sequence in flight, process wide, keyed by
// normalized name so /dev/ttyACM0 and ttyACM0 are the same device
var busyPorts = struct {
	sync.Mutex
	held map[string]struct{}
}{held: map[string]struct{}{}}

// lockPort claims port for one sequence. A second claim fails with a
// PortBusyError until the returned unlock is called.
func lockPort(port string) (func(), error) {
	key := NormalizePortName(port)

	busyPorts.Lock()
	defer busyPorts.Unlock()

	if _, ok := busyPorts.held[key]; ok {
		return nil, newPortBusyError(port)
	}

	busyPorts.held[key] = struct{}{}

	var once sync.Once

	return func() {
		once.Do(func() {
			busyPorts.Lock()
			delete(busyPorts.held, key)
			busyPorts.Unlock()
		})
	}, nil
}

// portLocks collects the locks one sequence holds. It starts with the port
// the reset is sent to and gains the re-enumerated port once it appears.
type portLocks struct {
	keys    []string
	unlocks []func()
}

// claim locks port unless this sequence already holds it.
func (l *portLocks) claim(port string) error {
	key := NormalizePortName(port)

	for _, held := range l.keys {
		if held == key {
			return nil
		}
	}

	unlock, err := lockPort(port)
	if err != nil {
		return err
	}

	l.keys = append(l.keys, key)
	l.unlocks = append(l.unlocks, unlock)

	return nil
}

func (l *portLocks) release() {
	for i := len(l.unlocks) - 1; i >= 0; i-- {
		l.unlocks[i]()
	}

	l.keys, l.unlocks = nil, nil
}
