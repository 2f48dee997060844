// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package daemon assembles the pieces pkg/smart/config, pkg/smart/device,
// and pkg/smart/monitor each build in isolation into the live registry
// cmd/serve hands to both the poll Loop and the HTTP API. It is the
// daemon-wide wiring layer spec.md section 6 describes as the config
// file's consumer: one device config line becomes one opened handle plus
// one registered DeviceState.
package daemon

import (
	"time"

	"github.com/stratastor/logger"
	smartconfig "github.com/stratastor/smartmond/pkg/smart/config"
	"github.com/stratastor/smartmond/pkg/smart/device"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
	"github.com/stratastor/smartmond/pkg/smart/platform"
)

// BuildRegistry parses deviceConfigPath and registers one DeviceState per
// non-scan line, building (not opening) a handle for each pathname with the
// device type its -d directive names (default "ata"). DEVICESCAN enumeration is not
// implemented: a DEVICESCAN line is logged and skipped rather than
// refusing the whole file, since no SPEC_FULL.md operation depends on bus
// enumeration and every other line in the file should still load.
func BuildRegistry(log logger.Logger, deviceConfigPath string, defaults monitor.Config, pollInterval time.Duration) (*monitor.Registry, error) {
	lines, err := smartconfig.ParseFile(deviceConfigPath)
	if err != nil {
		return nil, err
	}

	defaults.ColdStartGraceTicks = monitor.ColdStartGraceTicksFor(pollInterval)

	port := platform.NewPort()
	registry := monitor.NewRegistry()
	for _, dl := range lines {
		if dl.IsScan {
			log.Warn("DEVICESCAN enumeration is not implemented, skipping directive line", "pathname", dl.Pathname)
			continue
		}

		cfg, overrides, err := smartconfig.BuildMonitorConfig(dl.Tokens, defaults)
		if err != nil {
			return nil, err
		}

		handle := openHandle(dl.Pathname, deviceTypeOf(dl.Tokens), port)

		state, err := monitor.NewDeviceState(dl.Pathname, cfg)
		if err != nil {
			return nil, err
		}
		state.Overrides = overrides

		if err := registry.Register(handle, state); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// deviceTypeOf reads the -d directive's value out of a device line's
// tokens without consuming them, mirroring the skip BuildMonitorConfig
// itself performs for -d.
func deviceTypeOf(tokens []string) string {
	for i, t := range tokens {
		if t == "-d" && i+1 < len(tokens) {
			return tokens[i+1]
		}
	}
	return "ata"
}

func openHandle(pathname, devType string, port platform.Port) device.Handle {
	switch devType {
	case "scsi":
		return device.NewScsiHandle(pathname, port)
	default:
		return device.NewAtaHandle(pathname, port)
	}
}
