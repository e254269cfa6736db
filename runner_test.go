// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecRunnerExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	err := ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "echo no device found >&2; exit 3"})
	require.True(t, IsUploadError(err, ErrorUploaderExit))

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Equal(t, 3, uploadErr.ExitCode)
	require.Contains(t, uploadErr.Stderr, "no device found")
	require.Contains(t, err.Error(), "exited with status 3")
}

func TestExecRunnerSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	require.NoError(t, ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "echo writing"}))
}

func TestExecRunnerMissingBinary(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), "gosamflash-no-such-uploader", nil)
	require.True(t, IsUploadError(err, ErrorConfiguration))
}
