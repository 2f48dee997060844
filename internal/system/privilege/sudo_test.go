// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestOps() *SudoFileOperations {
	return NewSudoFileOperations(nil, nil, DefaultConfig().AllowedPaths)
}

func TestIsPathAllowed(t *testing.T) {
	ops := newTestOps()

	t.Run("MatchesGlobSuffix", func(t *testing.T) {
		assert.True(t, ops.isPathAllowed("/dev/sda"))
		assert.True(t, ops.isPathAllowed("/dev/sdb3"))
		assert.True(t, ops.isPathAllowed("/dev/sg0"))
		assert.True(t, ops.isPathAllowed("/dev/nvme0n1"))
	})

	t.Run("RejectsNonDevicePath", func(t *testing.T) {
		assert.False(t, ops.isPathAllowed("/etc/samba/smb.conf"))
		assert.False(t, ops.isPathAllowed("/dev/null"))
		assert.False(t, ops.isPathAllowed("/dev/random"))
	})

	t.Run("RejectsUnrelatedDeviceFamily", func(t *testing.T) {
		assert.False(t, ops.isPathAllowed("/dev/tty0"))
		assert.False(t, ops.isPathAllowed("/dev/loop0"))
	})
}
