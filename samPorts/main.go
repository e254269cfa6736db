// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bbnote/gosamflash"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	logger *logrus.Logger
)

func initLogger() {
	formatter := &prefixed.TextFormatter{
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stderr)
}

func listPorts(detailed bool) error {
	serialPorts := gosamflash.SerialEnumerator{}

	if !detailed {
		snapshot, err := serialPorts.List()
		if err != nil {
			return err
		}

		for _, name := range snapshot.Names() {
			fmt.Println(name)
		}

		return nil
	}

	ports, err := serialPorts.DetailedPorts()
	if err != nil {
		return err
	}

	for _, port := range ports {
		if port.IsUSB {
			fmt.Printf("%s\t%s:%s\t%s\t%s\n", port.Name, port.VID, port.PID, port.SerialNumber, port.Product)
		} else {
			fmt.Println(port.Name)
		}
	}

	return nil
}

func listProbes() error {
	probes, err := gosamflash.NewUsbProbeDetector()
	if err != nil {
		return err
	}
	defer probes.Close()

	found, err := probes.FindProbes()
	if err != nil {
		return err
	}

	for _, probe := range found {
		fmt.Println(probe)
	}

	return nil
}

func listBoards(boardFile string) error {
	table, err := gosamflash.NewBoardTable(boardFile)
	if err != nil {
		return err
	}

	for _, id := range table.Ids() {
		board, _ := table.Get(id)
		fmt.Printf("%-16s %-12s %-14s %s\n", id, board.Build.Mcu, board.Build.Variant, board.Name)
	}

	return nil
}

func resolvePort(config *gosamflash.Config, board string, port string) error {
	opts, cleanup, err := config.UploaderOptions()
	defer cleanup()

	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		cancel()
	}()

	resolved, err := gosamflash.New(opts...).ResolvePort(ctx, board, port)
	if err != nil {
		return err
	}

	fmt.Println(resolved)

	return nil
}

func main() {
	initLogger()
	gosamflash.SetLogger(logger)

	flagLogLevel := flag.Int("LogLevel", int(logrus.WarnLevel), "Logging verbosity [0 - 6]")
	flagConfig := flag.String("Config", "gosamflash.toml", "Path to configuration file")
	flagDetailed := flag.Bool("Detailed", false, "Show USB details of every port")
	flagProbes := flag.Bool("Probes", false, "List attached debug probes")
	flagBoards := flag.Bool("Boards", false, "List known boards")
	flagBoard := flag.String("Board", "", "Resolve the upload port of this board (resets the board)")
	flagPort := flag.String("Port", "", "Port to start from when resolving")

	flag.Parse()

	level := gosamflash.MaxLogLevel
	if *flagLogLevel >= 0 && logrus.Level(*flagLogLevel) < level {
		level = logrus.Level(*flagLogLevel)
	}
	logger.SetLevel(level)

	config := gosamflash.NewConfig()

	if err := config.LoadFile(*flagConfig); err != nil {
		logger.Fatal(err)
	}

	var err error

	switch {
	case *flagBoards:
		err = listBoards(config.BoardFile)
	case *flagProbes:
		err = listProbes()
	case *flagBoard != "":
		err = resolvePort(config, *flagBoard, *flagPort)
	default:
		err = listPorts(*flagDetailed)
	}

	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
