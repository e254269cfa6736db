// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestSnapshotDifferenceIgnoresOrder(t *testing.T) {
	before := NewPortSnapshot("/dev/ttyS0", "/dev/ttyACM0")
	after := NewPortSnapshot("/dev/ttyACM2", "/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyS0")

	require.Equal(t, []string{"/dev/ttyACM1", "/dev/ttyACM2"}, after.Difference(before))
	require.Empty(t, before.Difference(after))
	require.Empty(t, before.Difference(before))
}

func TestSnapshotNames(t *testing.T) {
	s := NewPortSnapshot("b", "a", "c", "a")

	require.Equal(t, 3, s.Len())
	require.Equal(t, []string{"a", "b", "c"}, s.Names())
	require.True(t, s.Contains("c"))
	require.False(t, s.Contains("d"))
	require.Equal(t, 0, PortSnapshot{}.Len())
}

func TestNormalizePortName(t *testing.T) {
	cases := map[string]string{
		"/dev/ttyACM1":          "ttyACM1",
		"/dev/cu.usbmodem14101": "cu.usbmodem14101",
		`\\.\COM12`:             "COM12",
		"COM3":                  "COM3",
		"ttyACM0":               "ttyACM0",
	}

	for in, want := range cases {
		got := NormalizePortName(in)
		require.Equal(t, want, got, in)
		require.Equal(t, got, NormalizePortName(got), "normalizing %q twice", in)
	}
}

func TestAutodetectPort(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "003d"},
	}

	port, ok := AutodetectPort(ports)
	require.True(t, ok)
	require.Equal(t, "/dev/ttyACM0", port)

	port, ok = AutodetectPort(ports[:2])
	require.True(t, ok)
	require.Equal(t, "/dev/ttyUSB0", port)

	_, ok = AutodetectPort(ports[:1])
	require.False(t, ok)
}
