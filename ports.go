// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"sort"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortSnapshot is the set of serial device paths seen at one instant.
type PortSnapshot struct {
	ports map[string]struct{}
}

func NewPortSnapshot(names ...string) PortSnapshot {
	s := PortSnapshot{ports: make(map[string]struct{}, len(names))}

	for _, name := range names {
		s.ports[name] = struct{}{}
	}

	return s
}

func (s PortSnapshot) Contains(name string) bool {
	_, ok := s.ports[name]
	return ok
}

func (s PortSnapshot) Len() int {
	return len(s.ports)
}

// Names returns the ports in lexicographic order.
func (s PortSnapshot) Names() []string {
	names := make([]string, 0, len(s.ports))

	for name := range s.ports {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Difference returns the ports present in s but absent from before, sorted.
func (s PortSnapshot) Difference(before PortSnapshot) []string {
	var added []string

	for name := range s.ports {
		if !before.Contains(name) {
			added = append(added, name)
		}
	}

	sort.Strings(added)

	return added
}

// PortEnumerator lists the serial devices currently attached.
type PortEnumerator interface {
	List() (PortSnapshot, error)
}

// SerialEnumerator lists ports through the operating system.
type SerialEnumerator struct{}

func (SerialEnumerator) List() (PortSnapshot, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return PortSnapshot{}, newEnumerationError(err)
	}

	logger.Tracef("enumerated serial ports: %v", ports)

	return NewPortSnapshot(ports...), nil
}

// DetailedPorts returns USB details of all serial ports, sorted by name.
func (SerialEnumerator) DetailedPorts() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, newEnumerationError(err)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	return ports, nil
}

// Atmel and Arduino USB vendor ids
var samBoardVids = []string{"03EB", "2341", "2A03"}

// AutodetectPort picks an upload port when none was given: the first USB
// serial port of a known SAM board vendor, else the first USB serial port.
func AutodetectPort(ports []*enumerator.PortDetails) (string, bool) {
	var fallback string

	for _, port := range ports {
		if port == nil || !port.IsUSB {
			continue
		}

		if vidExists(samBoardVids, port.VID) {
			return port.Name, true
		}

		if fallback == "" {
			fallback = port.Name
		}
	}

	return fallback, fallback != ""
}

// NormalizePortName strips any directory part, leaving the bare device name
// expected by bossac.
func NormalizePortName(port string) string {
	if i := strings.LastIndexAny(port, `/\`); i >= 0 {
		return port[i+1:]
	}

	return port
}

func vidExists(slice []string, item string) bool {
	for _, element := range slice {
		if strings.EqualFold(element, item) {
			return true
		}
	}

	return false
}
