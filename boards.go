// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed boards.toml
var builtinBoards []byte

type BoardBuildConfig struct {
	Mcu     string `toml:"mcu"`
	Cpu     string `toml:"cpu"`
	FCpu    string `toml:"f_cpu"`
	Variant string `toml:"variant"`
}

type BoardUploadConfig struct {
	Protocol          string `toml:"protocol"`
	DisableFlushing   bool   `toml:"disable_flushing"`
	Use1200bpsTouch   bool   `toml:"use_1200bps_touch"`
	WaitForUploadPort bool   `toml:"wait_for_upload_port"`
	MaximumSize       int    `toml:"maximum_size"`
	MaximumRamSize    int    `toml:"maximum_ram_size"`
}

// BoardConfig holds the facts known about one board identifier.
type BoardConfig struct {
	Name   string            `toml:"name"`
	Build  BoardBuildConfig  `toml:"build"`
	Upload BoardUploadConfig `toml:"upload"`
}

// BoardLookup resolves a board identifier to its configuration.
type BoardLookup interface {
	Get(boardId string) (BoardConfig, error)
}

// BoardTable is a BoardLookup backed by TOML board definitions.
type BoardTable struct {
	boards map[string]BoardConfig
}

// NewBoardTable returns the built-in boards, extended by the TOML file at
// overridePath if it is not empty. File entries replace built-in ones.
func NewBoardTable(overridePath string) (*BoardTable, error) {
	table := &BoardTable{boards: map[string]BoardConfig{}}

	if err := table.merge(builtinBoards); err != nil {
		return nil, fmt.Errorf("built-in boards: %w", err)
	}

	if overridePath == "" {
		return table, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, newConfigurationError(fmt.Sprintf("could not read board file %s", overridePath), err)
	}

	if err := table.merge(data); err != nil {
		return nil, newConfigurationError(fmt.Sprintf("could not parse board file %s", overridePath), err)
	}

	logger.Debugf("loaded board definitions from %s", overridePath)

	return table, nil
}

func (t *BoardTable) merge(data []byte) error {
	boards := map[string]BoardConfig{}

	if err := toml.Unmarshal(data, &boards); err != nil {
		return err
	}

	for id, board := range boards {
		t.boards[id] = board
	}

	return nil
}

func (t *BoardTable) Get(boardId string) (BoardConfig, error) {
	if board, ok := t.boards[boardId]; ok {
		return board, nil
	}

	return BoardConfig{}, newConfigurationError(fmt.Sprintf("unknown board %q", boardId), nil)
}

// Ids returns all known board identifiers in sorted order.
func (t *BoardTable) Ids() []string {
	ids := make([]string, 0, len(t.boards))

	for id := range t.boards {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
