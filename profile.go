// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"os"

	"github.com/boljen/go-bitmap"
)

type BoardFamily uint8

const (
	FamilyBootloaderTouchReset BoardFamily = iota
	FamilyDebugProbeReset
)

func (f BoardFamily) String() string {
	switch f {
	case FamilyDebugProbeReset:
		return "debug-probe reset"
	case FamilyBootloaderTouchReset:
		return "bootloader touch reset"
	default:
		return "unknown"
	}
}

// board profile feature flags
const (
	featureUsesBootPin = iota
	featureDisableFlushing
	featureUsesTouch1200
	featureWaitsForNewPort

	featureCount
)

// placeholders substituted in uploader argument templates
const (
	argUploadPort = "UPLOAD_PORT"
	argSources    = "SOURCES"
)

// BoardProfile holds everything the upload sequence needs to know about a
// board. It is built once by ResolveBoardProfile and never modified.
type BoardProfile struct {
	boardId string
	family  BoardFamily

	mcu     string
	cpu     string
	variant string

	uploaderCommand string
	uploaderArgs    []string

	features bitmap.Bitmap
}

func (p BoardProfile) BoardId() string         { return p.boardId }
func (p BoardProfile) Family() BoardFamily     { return p.family }
func (p BoardProfile) Mcu() string             { return p.mcu }
func (p BoardProfile) Cpu() string             { return p.cpu }
func (p BoardProfile) McuVariant() string      { return p.variant }
func (p BoardProfile) UploaderCommand() string { return p.uploaderCommand }

func (p BoardProfile) UsesBootPin() bool     { return p.feature(featureUsesBootPin) }
func (p BoardProfile) DisableFlushing() bool { return p.feature(featureDisableFlushing) }
func (p BoardProfile) UsesTouch1200() bool   { return p.feature(featureUsesTouch1200) }
func (p BoardProfile) WaitsForNewPort() bool { return p.feature(featureWaitsForNewPort) }

func (p BoardProfile) feature(flag int) bool {
	if p.features == nil {
		return false
	}

	return p.features.Get(flag)
}

// UploaderArgsTemplate returns a copy of the unexpanded uploader arguments.
func (p BoardProfile) UploaderArgsTemplate() []string {
	args := make([]string, len(p.uploaderArgs))
	copy(args, p.uploaderArgs)

	return args
}

// UploadTarget is the late-bound part of an upload: where and what.
type UploadTarget struct {
	ResolvedPort string
	FirmwarePath string
}

// UploaderArgs expands the argument template for target. Extra flags are
// placed ahead of the template arguments.
func (p BoardProfile) UploaderArgs(target UploadTarget, extra []string) []string {
	args := make([]string, 0, len(extra)+len(p.uploaderArgs))
	args = append(args, extra...)

	for _, arg := range p.uploaderArgs {
		args = append(args, os.Expand(arg, func(name string) string {
			switch name {
			case argUploadPort:
				return target.ResolvedPort
			case argSources:
				return target.FirmwarePath
			default:
				return "$" + name
			}
		}))
	}

	return args
}
