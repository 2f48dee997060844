// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPage() []byte {
	page := make([]byte, 512)
	for i := range page[:511] {
		page[i] = byte(i)
	}
	var sum byte
	for _, b := range page[:511] {
		sum += b
	}
	page[511] = -sum
	return page
}

func TestPageChecksum(t *testing.T) {
	t.Run("ValidPageSumsToZero", func(t *testing.T) {
		assert.Equal(t, byte(0), PageChecksum(validPage()))
	})

	t.Run("CorruptedPageSumsNonZero", func(t *testing.T) {
		page := validPage()
		page[0]++
		assert.NotEqual(t, byte(0), PageChecksum(page))
	})
}

func TestVerifyChecksum(t *testing.T) {
	t.Run("WrongLength", func(t *testing.T) {
		err := VerifyChecksum(make([]byte, 100), ChecksumWarn, "identify")
		require.Error(t, err)
	})

	t.Run("ValidPagePassesUnderAnyPolicy", func(t *testing.T) {
		page := validPage()
		for _, policy := range []ChecksumPolicy{ChecksumWarn, ChecksumExit, ChecksumIgnore} {
			require.NoError(t, VerifyChecksum(page, policy, "identify"))
		}
	})

	t.Run("IgnorePolicySwallowsBadChecksum", func(t *testing.T) {
		page := validPage()
		page[0]++
		require.NoError(t, VerifyChecksum(page, ChecksumIgnore, "identify"))
	})

	t.Run("ExitPolicyReturnsErrorOnBadChecksum", func(t *testing.T) {
		page := validPage()
		page[0]++
		err := VerifyChecksum(page, ChecksumExit, "identify")
		require.Error(t, err)
	})

	t.Run("WarnPolicyReturnsError", func(t *testing.T) {
		page := validPage()
		page[0]++
		err := VerifyChecksum(page, ChecksumWarn, "identify")
		require.Error(t, err)
	})
}

func TestIdentifyChecksumValid(t *testing.T) {
	t.Run("TooShort", func(t *testing.T) {
		assert.False(t, IdentifyChecksumValid(make([]byte, 100)))
	})

	t.Run("SignatureByteSet", func(t *testing.T) {
		page := make([]byte, 512)
		page[510] = 0xA5
		assert.True(t, IdentifyChecksumValid(page))
	})

	t.Run("SignatureByteUnset", func(t *testing.T) {
		page := make([]byte, 512)
		assert.False(t, IdentifyChecksumValid(page))
	})
}
