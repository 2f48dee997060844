// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func putIDString(page []byte, start int, s string) {
	raw := []byte(s)
	for i := 0; i+1 < len(raw); i += 2 {
		page[start+i], page[start+i+1] = raw[i+1], raw[i]
	}
}

func TestDecodeIdentify(t *testing.T) {
	t.Run("BasicFieldsDecodeAndTrim", func(t *testing.T) {
		page := make([]byte, 512)
		putIDString(page, 20, "SN123   ")
		putIDString(page, 46, "FW01")
		putIDString(page, 54, "MODEL-X")
		PutLE32(page[120:124], 1000000)

		id := DecodeIdentify(page, FirmwareBugNone)
		assert.Equal(t, "SN123", id.SerialNumber)
		assert.Equal(t, "FW01", id.FirmwareRev)
		assert.Equal(t, "MODEL-X", id.ModelNumber)
		assert.False(t, id.LBA48Supported)
		assert.Equal(t, uint64(1000000), id.NumSectors)
	})

	t.Run("LBA48UsesWiderSectorCount", func(t *testing.T) {
		page := make([]byte, 512)
		PutLE16(page[166:168], 1<<10)
		PutLE64(page[200:208], 0x0000123456789ABC)

		id := DecodeIdentify(page, FirmwareBugNone)
		assert.True(t, id.LBA48Supported)
		assert.Equal(t, uint64(0x123456789ABC), id.NumSectors)
	})

	t.Run("SmartEnabledBitIsRead", func(t *testing.T) {
		page := make([]byte, 512)
		PutLE16(page[170:172], 1)
		id := DecodeIdentify(page, FirmwareBugNone)
		assert.True(t, id.SmartEnabled)
	})

	t.Run("Samsung2SkipsByteSwap", func(t *testing.T) {
		page := make([]byte, 512)
		copy(page[20:], []byte("SN123   "))

		id := DecodeIdentify(page, FirmwareBugSamsung2)
		assert.Equal(t, "SN123", id.SerialNumber)
	})

	t.Run("SwapIDForcesSwapRegardlessOfBugTag", func(t *testing.T) {
		page := make([]byte, 512)
		putIDString(page, 20, "AB")

		id := DecodeIdentify(page, FirmwareBugSwapID)
		assert.Equal(t, "AB", id.SerialNumber)
	})
}
