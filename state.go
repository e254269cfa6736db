// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

type UploadState uint8

const (
	StateIdle UploadState = iota
	StatePortsSnapshotted
	StateResetTriggered
	StatePortAwaited
	StatePortResolved
	StateUploading
	StateSucceeded
	StateFailed
)

func (s UploadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePortsSnapshotted:
		return "ports snapshotted"
	case StateResetTriggered:
		return "reset triggered"
	case StatePortAwaited:
		return "port awaited"
	case StatePortResolved:
		return "port resolved"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s UploadState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// StateCallback observes every transition of an upload sequence. port is
// the port known at that point, possibly empty.
type StateCallback func(state UploadState, port string)
