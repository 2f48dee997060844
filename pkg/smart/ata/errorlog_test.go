// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeErrorLog(t *testing.T) {
	t.Run("EmptyEntriesAreSkipped", func(t *testing.T) {
		page := make([]byte, 512)
		PutLE16(page[452:454], 3)
		l := DecodeErrorLog(page)
		assert.Equal(t, uint16(3), l.ErrorCount)
		assert.Empty(t, l.Entries)
	})

	t.Run("NonZeroEntryIsDecoded", func(t *testing.T) {
		page := make([]byte, 512)
		PutLE16(page[452:454], 1)
		entry := page[2:92]
		entry[0] = 0x01 // error
		entry[1] = 0x02 // status
		PutLE16(entry[2:4], 1234)
		PutLE32(entry[4:8], 0xAABBCCDD)
		entry[8] = 0xEF

		l := DecodeErrorLog(page)
		assert.Equal(t, uint16(1), l.ErrorCount)
		assert.Len(t, l.Entries, 1)
		assert.Equal(t, byte(0x01), l.Entries[0].Error)
		assert.Equal(t, byte(0x02), l.Entries[0].Status)
		assert.Equal(t, uint16(1234), l.Entries[0].Hour)
		assert.Equal(t, uint64(0xEFAABBCCDD), l.Entries[0].LBA)
	})
}
