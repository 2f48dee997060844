// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stratastor/smartmond/internal/common"
)

// configDir is the only directory this daemon creates on disk: it holds
// rodent.yml and the device config file BuildRegistry reads. Everything
// else the daemon touches is either the pidfile (created/removed directly
// by pkg/lifecycle, not here) or state already living on the monitored
// block devices themselves — spec.md section 6's "no other on-disk state".
var configDir string

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/rodent"
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Sprintf("failed to get home directory: %v", err))
		}
		configDir = filepath.Join(homeDir, ".rodent")
	}

	if err := EnsureDirectories(); err != nil {
		panic(fmt.Sprintf("failed to ensure configuration directory: %v", err))
	}
}

// GetConfigDir returns the appropriate configuration directory: the system
// directory when running as root, the user directory otherwise.
func GetConfigDir() string {
	return configDir
}

// EnsureDirectories creates configDir if it does not exist.
func EnsureDirectories() error {
	if err := common.EnsureDir(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", configDir, err)
	}
	return nil
}
