// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

// Config contains configuration for the privilege operations module
type Config struct {
	// AllowedPaths defines device-node glob patterns (a trailing "*" is a
	// wildcard) that may be probed with sudo-elevated access
	AllowedPaths []string `yaml:"allowed_paths" json:"allowed_paths"`

	// AllowedCommands defines commands that can be executed with sudo
	AllowedCommands []string `yaml:"allowed_commands" json:"allowed_commands"`
}

// DefaultConfig returns the device-access allowlist used to gate
// pkg/smart/platform's raw /dev node opens: SCSI generic, ATA/SCSI disk,
// and NVMe character devices. A path outside this list is refused before
// any privileged probe is attempted.
func DefaultConfig() *Config {
	return &Config{
		AllowedPaths: []string{
			"/dev/sd*",
			"/dev/sg*",
			"/dev/hd*",
			"/dev/nvme*",
		},
		AllowedCommands: []string{
			"smartctl",
			"hdparm",
			"blockdev",
		},
	}
}