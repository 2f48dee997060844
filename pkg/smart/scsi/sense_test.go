// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDissectSense(t *testing.T) {
	t.Run("TooShortIsRejected", func(t *testing.T) {
		_, err := DissectSense(make([]byte, 4))
		require.Error(t, err)
	})

	t.Run("FixedFormat", func(t *testing.T) {
		buf := make([]byte, 18)
		buf[0] = 0x70
		buf[2] = byte(SenseMediumError)
		buf[12] = 0x11
		buf[13] = 0x04

		s, err := DissectSense(buf)
		require.NoError(t, err)
		assert.Equal(t, byte(0x70), s.ResponseCode)
		assert.Equal(t, SenseMediumError, s.Key)
		assert.Equal(t, byte(0x11), s.ASC)
		assert.Equal(t, byte(0x04), s.ASCQ)
	})

	t.Run("DescriptorFormatWithATAReturnDescriptor", func(t *testing.T) {
		buf := make([]byte, 16)
		buf[0] = 0x72
		buf[1] = byte(SenseNoSense)
		buf[2] = 0x00
		buf[3] = 0x1D
		buf[7] = 6 // additional sense length
		buf[8] = ATAReturnDescriptorType
		buf[9] = 4 // descriptor length
		copy(buf[10:14], []byte{1, 2, 3, 4})

		s, err := DissectSense(buf)
		require.NoError(t, err)
		assert.Equal(t, byte(0x72), s.ResponseCode)
		d, ok := FindDescriptor(s, ATAReturnDescriptorType)
		require.True(t, ok)
		assert.Equal(t, []byte{1, 2, 3, 4}, d.Data)
	})

	t.Run("UnrecognizedResponseCode", func(t *testing.T) {
		buf := make([]byte, 8)
		buf[0] = 0x50
		_, err := DissectSense(buf)
		require.Error(t, err)
	})
}

func TestFindDescriptorMiss(t *testing.T) {
	_, ok := FindDescriptor(Sense{}, ATAReturnDescriptorType)
	assert.False(t, ok)
}
