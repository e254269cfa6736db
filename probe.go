// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"errors"
	"fmt"

	"github.com/google/gousb"
)

var debugProbeVids = []gousb.ID{0x03eb} // Atmel/Microchip vendor id
var debugProbePids = []gousb.ID{
	0x2111, // EDBG (Xplained Pro)
	0x2141, // Atmel-ICE
	0x2157, // EDBG (Arduino Zero)
	0x2175, // nEDBG
}

// ProbeInfo describes a debug probe found on the USB bus.
type ProbeInfo struct {
	Vendor  gousb.ID
	Product gousb.ID
	Bus     int
	Address int
}

func (p ProbeInfo) String() string {
	return fmt.Sprintf("[%04x:%04x] on bus %03d:%03d", uint16(p.Vendor), uint16(p.Product), p.Bus, p.Address)
}

// ProbeDetector finds debug probes usable by openocd.
type ProbeDetector interface {
	FindProbes() ([]ProbeInfo, error)
}

// UsbProbeDetector scans the USB bus through libusb.
type UsbProbeDetector struct {
	ctx  *gousb.Context
	vids []gousb.ID
	pids []gousb.ID
}

func NewUsbProbeDetector() (*UsbProbeDetector, error) {
	ctx := gousb.NewContext()
	if ctx == nil {
		return nil, errors.New("could not initialize libusb")
	}

	logger.Debug("initialized libusb")

	return &UsbProbeDetector{ctx: ctx, vids: debugProbeVids, pids: debugProbePids}, nil
}

func (d *UsbProbeDetector) FindProbes() ([]ProbeInfo, error) {
	var probes []ProbeInfo

	// descriptors are inspected only, no device is opened
	devices, err := d.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if idExists(d.vids, desc.Vendor) && idExists(d.pids, desc.Product) {
			probe := ProbeInfo{Vendor: desc.Vendor, Product: desc.Product, Bus: desc.Bus, Address: desc.Address}

			logger.Infof("found debug probe %s", probe)
			probes = append(probes, probe)
		}

		return false
	})

	for _, dev := range devices {
		dev.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("usb device scan: %w", err)
	}

	return probes, nil
}

func (d *UsbProbeDetector) Close() error {
	return d.ctx.Close()
}

func idExists(slice []gousb.ID, item gousb.ID) bool {
	for _, element := range slice {
		if element == item {
			return true
		}
	}

	return false
}
