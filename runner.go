// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Runner executes an external uploader and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, name string, args []string) error
}

// ExecRunner runs the uploader as a subprocess. Its output goes to the
// logger; stderr is kept for the error report.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout := logger.WriterLevel(logrus.InfoLevel)
	defer stdout.Close()

	stderrLog := logger.WriterLevel(logrus.WarnLevel)
	defer stderrLog.Close()

	var stderr bytes.Buffer

	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(&stderr, stderrLog)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError

	if errors.As(err, &exitErr) {
		return newUploaderExitError(name, exitErr.ExitCode(), stderr.String())
	}

	if errors.Is(err, exec.ErrNotFound) {
		return newConfigurationError(fmt.Sprintf("uploader %s not found", name), err)
	}

	return fmt.Errorf("running %s: %w", name, err)
}
