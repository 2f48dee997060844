// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLEAccessors(t *testing.T) {
	t.Run("16", func(t *testing.T) {
		b := []byte{0x34, 0x12}
		assert.Equal(t, uint16(0x1234), LE16(b))
		out := make([]byte, 2)
		PutLE16(out, 0x1234)
		assert.Equal(t, b, out)
	})

	t.Run("32", func(t *testing.T) {
		b := []byte{0x78, 0x56, 0x34, 0x12}
		assert.Equal(t, uint32(0x12345678), LE32(b))
		out := make([]byte, 4)
		PutLE32(out, 0x12345678)
		assert.Equal(t, b, out)
	})

	t.Run("64", func(t *testing.T) {
		b := []byte{0xf0, 0xde, 0xbc, 0x9a, 0x78, 0x56, 0x34, 0x12}
		assert.Equal(t, uint64(0x123456789abcdef0), LE64(b))
		out := make([]byte, 8)
		PutLE64(out, 0x123456789abcdef0)
		assert.Equal(t, b, out)
	})
}

func TestSwapBytesRoundTrips(t *testing.T) {
	t.Run("16", func(t *testing.T) {
		for _, v := range []uint16{0, 1, 0x1234, 0xffff} {
			assert.Equal(t, v, SwapBytes16(SwapBytes16(v)))
		}
	})

	t.Run("32", func(t *testing.T) {
		for _, v := range []uint32{0, 1, 0x12345678, 0xffffffff} {
			assert.Equal(t, v, SwapBytes32(SwapBytes32(v)))
		}
	})

	t.Run("64", func(t *testing.T) {
		for _, v := range []uint64{0, 1, 0x123456789abcdef0, 0xffffffffffffffff} {
			assert.Equal(t, v, SwapBytes64(SwapBytes64(v)))
		}
	})

	t.Run("32KnownValue", func(t *testing.T) {
		assert.Equal(t, uint32(0x78563412), SwapBytes32(0x12345678))
	})
}

func TestNetBSDNativeIsFalseOnThisPlatform(t *testing.T) {
	assert.False(t, NetBSDNative)
}
