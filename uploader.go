// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial/enumerator"
)

// PortDetector lists serial ports with their USB details.
type PortDetector interface {
	DetailedPorts() ([]*enumerator.PortDetails, error)
}

// Uploader runs the upload sequence: snapshot ports, touch, wait for the
// bootloader port, then hand over to the board's uploader.
type Uploader struct {
	boards     BoardLookup
	tools      ToolPaths
	enumerator PortEnumerator
	detector   PortDetector
	toucher    Toucher
	flusher    Flusher
	runner     Runner
	probes     ProbeDetector
	clock      Clock

	portTimeout  time.Duration
	pollInterval time.Duration
	deviceEvents <-chan struct{}
	extraFlags   []string

	onState StateCallback
}

func New(opts ...Option) *Uploader {
	u := &Uploader{
		enumerator:   SerialEnumerator{},
		detector:     SerialEnumerator{},
		toucher:      NewSerialToucher(DefaultTouchSettle),
		flusher:      NewSerialFlusher(),
		runner:       ExecRunner{},
		clock:        SystemClock,
		portTimeout:  DefaultPortTimeout,
		pollInterval: DefaultPollInterval,
	}

	if table, err := NewBoardTable(""); err == nil {
		u.boards = table
	} else {
		logger.Errorf("could not load built-in boards: %v", err)
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Upload transfers the firmware at firmwarePath to boardId. preferredPort
// may be empty for boards that are autodetected or need no serial port.
// A failed upload is never retried.
func (u *Uploader) Upload(ctx context.Context, boardId, firmwarePath, preferredPort string) error {
	s, err := u.begin(boardId)
	if err != nil {
		return err
	}

	port, err := s.acquirePort(ctx, preferredPort)
	if err != nil {
		return s.fail(err)
	}
	defer s.locks.release()

	target := UploadTarget{ResolvedPort: port, FirmwarePath: firmwarePath}

	if err := s.upload(ctx, target); err != nil {
		return s.fail(err)
	}

	s.enter(StateSucceeded)
	s.log.Info("upload finished")

	return nil
}

// ResolvePort runs the port part of the sequence, including the reset, and
// returns the port the uploader would be given.
func (u *Uploader) ResolvePort(ctx context.Context, boardId, preferredPort string) (string, error) {
	s, err := u.begin(boardId)
	if err != nil {
		return "", err
	}

	port, err := s.acquirePort(ctx, preferredPort)
	if err != nil {
		return "", s.fail(err)
	}
	s.locks.release()

	return port, nil
}

// sequence is the state of one invocation.
type sequence struct {
	u       *Uploader
	profile BoardProfile
	state   UploadState
	port    string
	locks   portLocks
	log     *logrus.Entry
}

func (u *Uploader) begin(boardId string) (*sequence, error) {
	s := &sequence{u: u, state: StateIdle, log: logger.WithField("board", boardId)}

	u.notify(StateIdle, "")

	profile, err := ResolveBoardProfile(boardId, u.boards, u.tools)
	if err != nil {
		return nil, s.fail(err)
	}

	s.profile = profile

	return s, nil
}

func (u *Uploader) notify(state UploadState, port string) {
	if u.onState != nil {
		u.onState(state, port)
	}
}

func (s *sequence) enter(state UploadState) {
	if s.state.IsTerminal() {
		return
	}

	s.state = state
	s.log.WithField("state", state).Debugf("port %q", s.port)
	s.u.notify(state, s.port)
}

func (s *sequence) fail(err error) error {
	s.enter(StateFailed)
	s.log.WithError(err).Error("upload sequence failed")

	return err
}

// acquirePort returns the port to upload to. On success the sequence holds
// the locks of every port it touched until s.locks.release is called; on
// error they are already released.
func (s *sequence) acquirePort(ctx context.Context, preferred string) (string, error) {
	var (
		port string
		err  error
	)

	if s.profile.Family() == FamilyDebugProbeReset {
		port, err = s.acquireProbe(preferred)
	} else {
		port, err = s.acquireSerial(ctx, preferred)
	}

	if err != nil {
		s.locks.release()
		return "", err
	}

	return port, nil
}

func (s *sequence) acquireSerial(ctx context.Context, preferred string) (string, error) {
	port := preferred

	if port == "" {
		detected, err := s.u.autodetect()
		if err != nil {
			return "", err
		}

		port = detected
	}

	s.port = port
	s.log = s.log.WithField("port", port)

	if err := s.locks.claim(port); err != nil {
		return "", err
	}

	return s.resetAndWait(ctx, port)
}

// resetAndWait puts the board into its bootloader. The set of steps is
// fixed by the profile.
func (s *sequence) resetAndWait(ctx context.Context, port string) (string, error) {
	u := s.u

	if !s.profile.DisableFlushing() && u.flusher != nil {
		if err := u.flusher.Flush(ctx, port); err != nil {
			s.log.Warnf("could not flush serial buffer: %v", err)
		}
	}

	before, err := u.enumerator.List()
	if err != nil {
		return "", err
	}

	s.enter(StatePortsSnapshotted)

	if s.profile.UsesTouch1200() {
		if err := u.toucher.Touch(ctx, port, TouchBaudRate); err != nil {
			return "", err
		}

		s.enter(StateResetTriggered)
	}

	if s.profile.WaitsForNewPort() {
		waiter := &PortWaiter{
			Enumerator: u.enumerator,
			Interval:   u.pollInterval,
			Clock:      u.clock,
			Events:     u.deviceEvents,
		}

		newPort, err := waiter.AwaitNewPort(ctx, before, u.portTimeout)
		if err != nil {
			return "", err
		}

		if err := s.locks.claim(newPort); err != nil {
			return "", err
		}

		port = newPort
		s.port = port
		s.enter(StatePortAwaited)
	}

	port = NormalizePortName(port)
	s.port = port
	s.enter(StatePortResolved)

	return port, nil
}

func (s *sequence) acquireProbe(preferred string) (string, error) {
	if err := s.locks.claim("probe:" + NormalizePortName(preferred)); err != nil {
		return "", err
	}

	if probes := s.u.probes; probes != nil {
		found, err := probes.FindProbes()

		switch {
		case err != nil:
			s.log.Warnf("could not scan for debug probes: %v", err)
		case len(found) == 0:
			s.log.Warn("no debug probe found, is the board connected to its debug port?")
		default:
			s.log.Debugf("using debug probe %s", found[0])
		}
	}

	s.port = NormalizePortName(preferred)
	s.enter(StatePortResolved)

	return s.port, nil
}

func (u *Uploader) autodetect() (string, error) {
	if u.detector == nil {
		return "", newConfigurationError("no upload port given", nil)
	}

	ports, err := u.detector.DetailedPorts()
	if err != nil {
		return "", err
	}

	port, ok := AutodetectPort(ports)
	if !ok {
		return "", newConfigurationError("no upload port given and none could be detected", nil)
	}

	logger.WithField("port", port).Info("auto-detected upload port")

	return port, nil
}

func (s *sequence) upload(ctx context.Context, target UploadTarget) error {
	args := s.profile.UploaderArgs(target, s.u.extraFlags)

	s.enter(StateUploading)
	s.log.Infof("running %s %s", s.profile.UploaderCommand(), strings.Join(args, " "))

	return s.u.runner.Run(ctx, s.profile.UploaderCommand(), args)
}
