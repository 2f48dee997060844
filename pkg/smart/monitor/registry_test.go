// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stratastor/smartmond/pkg/smart/device"
)

func TestRegistryRegister(t *testing.T) {
	t.Run("RejectsDuplicatePathname", func(t *testing.T) {
		r := NewRegistry()
		state, err := NewDeviceState("/dev/sda", Config{})
		require.NoError(t, err)

		require.NoError(t, r.Register(device.NewAtaHandle("/dev/sda", nil), state))
		err = r.Register(device.NewAtaHandle("/dev/sda", nil), state)
		require.Error(t, err)
	})

	t.Run("DevicesPreservesInsertionOrder", func(t *testing.T) {
		r := NewRegistry()
		for _, p := range []string{"/dev/sdc", "/dev/sda", "/dev/sdb"} {
			state, err := NewDeviceState(p, Config{})
			require.NoError(t, err)
			require.NoError(t, r.Register(device.NewAtaHandle(p, nil), state))
		}

		entries := r.Devices()
		require.Len(t, entries, 3)
		assert.Equal(t, []string{"/dev/sdc", "/dev/sda", "/dev/sdb"}, []string{
			entries[0].Handle.Pathname(), entries[1].Handle.Pathname(), entries[2].Handle.Pathname(),
		})
	})
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	state, err := NewDeviceState("/dev/sda", Config{})
	require.NoError(t, err)
	require.NoError(t, r.Register(device.NewAtaHandle("/dev/sda", nil), state))

	r.Unregister("/dev/sda")
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Devices())
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	state, err := NewDeviceState("/dev/sda", Config{})
	require.NoError(t, err)
	require.NoError(t, r.Register(device.NewAtaHandle("/dev/sda", nil), state))

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestRegistryLen(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	state, err := NewDeviceState("/dev/sda", Config{})
	require.NoError(t, err)
	require.NoError(t, r.Register(device.NewAtaHandle("/dev/sda", nil), state))
	assert.Equal(t, 1, r.Len())
}
