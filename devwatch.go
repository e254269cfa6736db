// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

const DefaultDeviceDir = "/dev"

// DeviceWatcher reports device nodes being created or removed in a directory.
type DeviceWatcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func NewDeviceWatcher(dir string) (*DeviceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &DeviceWatcher{
		watcher: watcher,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go w.run()

	logger.Debugf("watching %s for device changes", dir)

	return w, nil
}

// Events delivers one notification per burst of changes; bursts coalesce.
func (w *DeviceWatcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. Later calls return the first call's result.
func (w *DeviceWatcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.watcher.Close()
	})

	return w.closeErr
}

func (w *DeviceWatcher) run() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}

			logger.Tracef("device event %s", event)

			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			logger.Debugf("device watcher: %v", err)
		}
	}
}
