// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"fmt"
	"os"
	"time"

	"github.com/google/shlex"
	"github.com/pelletier/go-toml/v2"
)

// Duration reads values like "5s" or "250ms" from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type ToolsConfig struct {
	Bossac            string `toml:"bossac"`
	OpenOcd           string `toml:"openocd"`
	OpenOcdScriptsDir string `toml:"openocd_scripts"`
	FrameworkDir      string `toml:"framework_dir"`
}

// Config holds the settings of the command line tools.
type Config struct {
	BoardFile     string      `toml:"board_file"`
	PortTimeout   Duration    `toml:"port_timeout"`
	PollInterval  Duration    `toml:"poll_interval"`
	TouchSettle   Duration    `toml:"touch_settle"`
	UploaderFlags string      `toml:"uploader_flags"`
	WatchDevices  bool        `toml:"watch_devices"`
	DeviceDir     string      `toml:"device_dir"`
	ProbeCheck    bool        `toml:"probe_check"`
	Tools         ToolsConfig `toml:"tools"`
}

func NewConfig() *Config {
	return &Config{
		PortTimeout:  Duration{DefaultPortTimeout},
		PollInterval: Duration{DefaultPollInterval},
		TouchSettle:  Duration{DefaultTouchSettle},
		DeviceDir:    DefaultDeviceDir,
	}
}

// LoadFile reads a TOML configuration file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newConfigurationError("could not read config "+path, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return newConfigurationError("could not parse config "+path, err)
	}

	return nil
}

func (c *Config) ToolPaths() ToolPaths {
	return ToolPaths{
		Bossac:            c.Tools.Bossac,
		OpenOcd:           c.Tools.OpenOcd,
		OpenOcdScriptsDir: c.Tools.OpenOcdScriptsDir,
		FrameworkDir:      c.Tools.FrameworkDir,
	}
}

// ParseUploaderFlags splits a shell-style flag string.
func ParseUploaderFlags(flags string) ([]string, error) {
	if flags == "" {
		return nil, nil
	}

	args, err := shlex.Split(flags)
	if err != nil {
		return nil, newConfigurationError(fmt.Sprintf("invalid uploader flags %q", flags), err)
	}

	return args, nil
}

// UploaderOptions turns the configuration into Uploader options. The
// returned cleanup releases watchers and USB contexts and must be called
// once the uploader is no longer used.
func (c *Config) UploaderOptions() ([]Option, func(), error) {
	var closers []func() error

	cleanup := func() {
		for _, closer := range closers {
			closer()
		}
	}

	boards, err := NewBoardTable(c.BoardFile)
	if err != nil {
		return nil, cleanup, err
	}

	extra, err := ParseUploaderFlags(c.UploaderFlags)
	if err != nil {
		return nil, cleanup, err
	}

	opts := []Option{
		WithBoardLookup(boards),
		WithToolPaths(c.ToolPaths()),
		WithPortTimeout(c.PortTimeout.Duration),
		WithPollInterval(c.PollInterval.Duration),
		WithToucher(NewSerialToucher(c.TouchSettle.Duration)),
		WithExtraFlags(extra),
	}

	if c.WatchDevices {
		watcher, err := NewDeviceWatcher(c.DeviceDir)
		if err != nil {
			logger.Warnf("device watching disabled: %v", err)
		} else {
			closers = append(closers, watcher.Close)
			opts = append(opts, WithDeviceEvents(watcher.Events()))
		}
	}

	if c.ProbeCheck {
		probes, err := NewUsbProbeDetector()
		if err != nil {
			logger.Warnf("debug probe check disabled: %v", err)
		} else {
			closers = append(closers, probes.Close)
			opts = append(opts, WithProbeDetector(probes))
		}
	}

	return opts, cleanup, nil
}
