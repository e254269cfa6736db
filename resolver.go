// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"path/filepath"
	"strings"

	"github.com/boljen/go-bitmap"
)

const (
	debugProbeBoardToken = "zero"
	usbNativeBoardToken  = "usb"
	noBootPinBoard       = "digix"
	bootFlagMcuToken     = "sam3x8e"

	defaultBossacCommand  = "bossac"
	defaultOpenOcdCommand = "openocd"
)

// ToolPaths locates the external uploaders and the files they reference.
type ToolPaths struct {
	// Bossac and OpenOcd override the uploader executables.
	Bossac  string
	OpenOcd string

	// OpenOcdScriptsDir is passed to openocd with -s.
	OpenOcdScriptsDir string
	// FrameworkDir contains variants/<variant>/openocd_scripts/<variant>.cfg.
	FrameworkDir string
}

func (t ToolPaths) bossac() string {
	if t.Bossac != "" {
		return t.Bossac
	}
	return defaultBossacCommand
}

func (t ToolPaths) openOcd() string {
	if t.OpenOcd != "" {
		return t.OpenOcd
	}
	return defaultOpenOcdCommand
}

// ResolveBoardProfile derives the immutable upload profile of boardId.
func ResolveBoardProfile(boardId string, lookup BoardLookup, tools ToolPaths) (BoardProfile, error) {
	if lookup == nil {
		return BoardProfile{}, newConfigurationError("no board lookup configured", nil)
	}

	board, err := lookup.Get(boardId)
	if err != nil {
		if IsUploadError(err, ErrorConfiguration) {
			return BoardProfile{}, err
		}
		return BoardProfile{}, newConfigurationError("could not resolve board "+boardId, err)
	}

	id := strings.ToLower(boardId)
	usbNative := strings.Contains(id, usbNativeBoardToken)

	profile := BoardProfile{
		boardId:  boardId,
		family:   FamilyBootloaderTouchReset,
		mcu:      board.Build.Mcu,
		cpu:      board.Build.Cpu,
		variant:  board.Build.Variant,
		features: bitmap.New(featureCount),
	}

	if strings.Contains(id, debugProbeBoardToken) && !usbNative {
		profile.family = FamilyDebugProbeReset
	}

	switch profile.family {
	case FamilyDebugProbeReset:
		profile.uploaderCommand = tools.openOcd()
		profile.uploaderArgs = []string{
			"-d2",
			"-s", tools.OpenOcdScriptsDir,
			"-f", filepath.Join(tools.FrameworkDir, "variants", board.Build.Variant,
				"openocd_scripts", board.Build.Variant+".cfg"),
			"-c", "telnet_port disabled; program {$" + argSources + "} verify reset 0x00002000; shutdown",
		}

		// the probe resets the target itself, no serial handshake
		profile.features.Set(featureDisableFlushing, true)

	case FamilyBootloaderTouchReset:
		usesBootPin := !(usbNative || id == noBootPinBoard)

		profile.uploaderCommand = tools.bossac()
		profile.uploaderArgs = []string{
			"--info",
			"--port", "$" + argUploadPort,
			"--erase",
			"--write",
			"--verify",
			"--reset",
			"--debug",
		}

		// Zero-class boards take no -U switch
		if !strings.Contains(id, debugProbeBoardToken) {
			profile.uploaderArgs = append(profile.uploaderArgs, "-U", boolFlag(!usesBootPin))
		}

		if strings.Contains(board.Build.Mcu, bootFlagMcuToken) {
			profile.uploaderArgs = append(profile.uploaderArgs, "--boot")
		}

		profile.uploaderArgs = append(profile.uploaderArgs, "$"+argSources)

		profile.features.Set(featureUsesBootPin, usesBootPin)
		profile.features.Set(featureDisableFlushing, board.Upload.DisableFlushing)
		profile.features.Set(featureUsesTouch1200, board.Upload.Use1200bpsTouch)
		profile.features.Set(featureWaitsForNewPort, board.Upload.WaitForUploadPort)
	}

	logger.WithField("board", boardId).Debugf("resolved %s profile (mcu %s, variant %s, uploader %s)",
		profile.family, profile.mcu, profile.variant, profile.uploaderCommand)

	return profile, nil
}

func boolFlag(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
