// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColdStartGraceTicksFor(t *testing.T) {
	t.Run("ZeroOrNegativeIntervalYieldsOneTick", func(t *testing.T) {
		assert.Equal(t, 1, ColdStartGraceTicksFor(0))
		assert.Equal(t, 1, ColdStartGraceTicksFor(-time.Minute))
	})

	t.Run("ShortIntervalYieldsManyTicks", func(t *testing.T) {
		assert.Equal(t, 30, ColdStartGraceTicksFor(time.Minute))
	})

	t.Run("LongerThanWindowStillYieldsAtLeastOneTick", func(t *testing.T) {
		assert.Equal(t, 1, ColdStartGraceTicksFor(time.Hour))
	})
}

func TestAttrMonitorBits(t *testing.T) {
	var b AttrMonitorBits

	assert.False(t, b.IsTracked(197))
	b.SetTracked(197, true)
	assert.True(t, b.IsTracked(197))
	b.SetTracked(197, false)
	assert.False(t, b.IsTracked(197))

	b.SetIgnored(5, true)
	assert.True(t, b.IsIgnored(5))
	assert.False(t, b.IsTracked(5))

	b.SetRawPrinted(10, true)
	b.SetRawChangeTracked(10, true)
	assert.True(t, b.IsRawPrinted(10))
	assert.True(t, b.IsRawChangeTracked(10))
}

func TestNewDeviceState(t *testing.T) {
	t.Run("CompilesEachSchedulePattern", func(t *testing.T) {
		cfg := Config{SchedulePattern: map[TestType]string{TestLong: "L/../../../.."}}
		state, err := NewDeviceState("/dev/sda", cfg)
		require.NoError(t, err)
		assert.Contains(t, state.ScheduleRegex, TestLong)
		assert.Equal(t, -1, state.LastRunBucket[TestLong])
	})

	t.Run("InvalidPatternFailsRegistration", func(t *testing.T) {
		cfg := Config{SchedulePattern: map[TestType]string{TestLong: "bogus"}}
		_, err := NewDeviceState("/dev/sda", cfg)
		require.Error(t, err)
	})
}

func TestDeviceStateSkippedCycles(t *testing.T) {
	state, err := NewDeviceState("/dev/sda", Config{})
	require.NoError(t, err)

	assert.Equal(t, 1, state.RecordSkippedCycle())
	assert.Equal(t, 2, state.RecordSkippedCycle())
	state.ResetSkippedCycles()
	assert.Equal(t, 1, state.RecordSkippedCycle())
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Health", CategoryHealth.String())
	assert.Equal(t, "Unknown", Category(999).String())
}
