// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAttributeTable(t *testing.T) {
	page := make([]byte, 512)
	PutLE16(page[0:2], 0x0010)
	entry := page[2:14]
	entry[0] = 5                // id
	PutLE16(entry[1:3], 0x0006) // flags
	entry[3] = 100              // current
	entry[4] = 99                // worst
	copy(entry[5:11], []byte{1, 2, 3, 4, 5, 6})

	table := DecodeAttributeTable(page)

	assert.Equal(t, uint16(0x0010), table.Revision)
	assert.Equal(t, byte(5), table.Entries[0].ID)
	assert.Equal(t, uint16(0x0006), table.Entries[0].Flags)
	assert.Equal(t, byte(100), table.Entries[0].Current)
	assert.Equal(t, byte(99), table.Entries[0].Worst)
	assert.Equal(t, [6]byte{1, 2, 3, 4, 5, 6}, table.Entries[0].Raw)
	assert.Equal(t, byte(0), table.Entries[1].ID)
}

func TestDecodeThresholdTable(t *testing.T) {
	page := make([]byte, 512)
	PutLE16(page[0:2], 0x0001)
	page[2] = 5
	page[3] = 10

	table := DecodeThresholdTable(page)

	assert.Equal(t, uint16(0x0001), table.Revision)
	assert.Equal(t, byte(5), table.Entries[0].ID)
	assert.Equal(t, byte(10), table.Entries[0].Threshold)
}

func TestDeriveAttributeState(t *testing.T) {
	tests := []struct {
		name         string
		id           byte
		current      byte
		worst        byte
		threshold    byte
		hasThreshold bool
		idMismatch   bool
		want         AttributeState
	}{
		{"EmptySlot", 0, 100, 100, 50, true, false, StateNonExisting},
		{"IDMismatchWinsOverEverythingElse", 5, 100, 100, 50, true, true, StateBadThreshold},
		{"NoThresholdRow", 5, 100, 100, 0, false, false, StateNoThreshold},
		{"ZeroCurrentAndWorst", 5, 0, 0, 50, true, false, StateNoNormval},
		{"ZeroThresholdAlwaysPasses", 5, 1, 1, 0, true, false, StateOK},
		{"CurrentAtOrBelowThresholdFailsNow", 5, 50, 80, 50, true, false, StateFailedNow},
		{"WorstAtOrBelowThresholdFailedInPast", 5, 80, 50, 50, true, false, StateFailedPast},
		{"AboveThresholdIsOK", 5, 80, 80, 50, true, false, StateOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveAttributeState(tc.id, tc.current, tc.worst, tc.threshold, 0, tc.hasThreshold, tc.idMismatch)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAttributeOverrideTable(t *testing.T) {
	t.Run("LookupMiss", func(t *testing.T) {
		table := NewAttributeOverrideTable()
		_, ok := table.Lookup(5)
		assert.False(t, ok)
	})

	t.Run("HigherPriorityWins", func(t *testing.T) {
		table := NewAttributeOverrideTable()
		table.Register(AttributeOverride{ID: 5, DisplayName: "low", Priority: 1})
		table.Register(AttributeOverride{ID: 5, DisplayName: "high", Priority: 2})

		o, ok := table.Lookup(5)
		assert.True(t, ok)
		assert.Equal(t, "high", o.DisplayName)
	})

	t.Run("LowerPriorityAfterHigherDoesNotShadow", func(t *testing.T) {
		table := NewAttributeOverrideTable()
		table.Register(AttributeOverride{ID: 5, DisplayName: "high", Priority: 2})
		table.Register(AttributeOverride{ID: 5, DisplayName: "low", Priority: 1})

		o, ok := table.Lookup(5)
		assert.True(t, ok)
		assert.Equal(t, "high", o.DisplayName)
	})

	t.Run("EqualPriorityLastRegistrationWins", func(t *testing.T) {
		table := NewAttributeOverrideTable()
		table.Register(AttributeOverride{ID: 5, DisplayName: "first", Priority: 1})
		table.Register(AttributeOverride{ID: 5, DisplayName: "second", Priority: 1})

		o, ok := table.Lookup(5)
		assert.True(t, ok)
		assert.Equal(t, "second", o.DisplayName)
	})
}
