// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bbnote/gosamflash"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	logger *logrus.Logger
)

func setUpSignalHandler(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		logger.Warn("interrupted, aborting upload...")
		cancel()
	}()
}

func initLogger() {
	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stdout)
}

func main() {
	initLogger()
	gosamflash.SetLogger(logger)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s -Board ID [OPTIONS] FIRMWARE\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}

	flagLogLevel := flag.Int("LogLevel", int(logrus.InfoLevel), "Logging verbosity [0 - 6]")
	flagConfig := flag.String("Config", "gosamflash.toml", "Path to configuration file")
	flagBoard := flag.String("Board", "", "Board identifier (e.g. due, dueUSB, zero)")
	flagPort := flag.String("Port", "", "Upload port, detected if empty")
	flagTimeout := flag.Duration("Timeout", 0, "Time to wait for the bootloader port")
	flagUploaderFlags := flag.String("UploaderFlags", "", "Extra flags passed to the uploader")
	flagWatch := flag.Bool("WatchDevices", false, "Watch the device directory while waiting for the port")
	flagProbeCheck := flag.Bool("ProbeCheck", false, "Check for a debug probe before running openocd")

	flag.Parse()

	level := gosamflash.MaxLogLevel
	if *flagLogLevel >= 0 && logrus.Level(*flagLogLevel) < level {
		level = logrus.Level(*flagLogLevel)
	}
	logger.SetLevel(level)

	if *flagBoard == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	config := gosamflash.NewConfig()

	if err := config.LoadFile(*flagConfig); err != nil {
		logger.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "Timeout":
			config.PortTimeout.Duration = *flagTimeout
		case "UploaderFlags":
			config.UploaderFlags = *flagUploaderFlags
		case "WatchDevices":
			config.WatchDevices = *flagWatch
		case "ProbeCheck":
			config.ProbeCheck = *flagProbeCheck
		}
	})

	opts, cleanup, err := config.UploaderOptions()
	if err != nil {
		cleanup()
		logger.Fatal(err)
	}

	uploader := gosamflash.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	setUpSignalHandler(cancel)

	start := time.Now()
	err = uploader.Upload(ctx, *flagBoard, flag.Arg(0), *flagPort)

	cancel()
	cleanup()

	if err != nil {
		var uploadErr *gosamflash.UploadError

		if errors.As(err, &uploadErr) {
			switch uploadErr.Code {
			case gosamflash.ErrorPortTimeout:
				logger.Errorf("ports present at timeout: %s", strings.Join(uploadErr.LastPorts, ", "))
			case gosamflash.ErrorUploaderExit:
				logger.Error("upload failed: ", err)
				os.Exit(uploadErr.ExitCode)
			}
		}

		logger.Error("upload failed: ", err)
		os.Exit(1)
	}

	logger.Infof("firmware uploaded in %s", time.Since(start).Round(time.Millisecond))
}
