// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stratastor/smartmond/pkg/smart/ata"
)

func TestReportExitCode(t *testing.T) {
	r := NewReport("/dev/sda", "ata", time.Now())
	assert.Equal(t, 0, r.ExitCode())

	r.AddBit(FailDev)
	r.AddBit(FailAttr)
	assert.Equal(t, int(FailDev|FailAttr), r.ExitCode())

	// Setting the same bit twice is idempotent.
	r.AddBit(FailAttr)
	assert.Equal(t, int(FailDev|FailAttr), r.ExitCode())
}

func TestBuildAttributeRows(t *testing.T) {
	var attrs ata.AttributeTable
	attrs.Entries[0] = ata.Attribute{ID: 5, Current: 100, Worst: 100}
	attrs.Entries[1] = ata.Attribute{ID: 0} // empty slot, skipped

	var thresholds ata.ThresholdTable
	thresholds.Entries[0].ID = 5
	thresholds.Entries[0].Threshold = 50

	overrides := ata.NewAttributeOverrideTable()
	overrides.Register(ata.AttributeOverride{ID: 5, DisplayName: "Reallocated_Sector_Ct", Format: ata.FormatRaw16})

	rows := BuildAttributeRows(attrs, thresholds, overrides)
	assert.Len(t, rows, 1)
	assert.Equal(t, byte(5), rows[0].ID)
	assert.Equal(t, "Reallocated_Sector_Ct", rows[0].DisplayName)
	assert.Equal(t, ata.FormatRaw16, rows[0].RawFormat)
	assert.Equal(t, ata.StateOK, rows[0].State)
}

func TestBuildAttributeRowsNilOverrides(t *testing.T) {
	var attrs ata.AttributeTable
	attrs.Entries[0] = ata.Attribute{ID: 5, Current: 100, Worst: 100}

	rows := BuildAttributeRows(attrs, ata.ThresholdTable{}, nil)
	assert.Len(t, rows, 1)
	assert.Empty(t, rows[0].DisplayName)
}

func TestEvaluateAttributeBits(t *testing.T) {
	t.Run("SetsFailAttrWhenFailingNow", func(t *testing.T) {
		r := NewReport("/dev/sda", "ata", time.Now())
		r.Attributes = []AttributeRow{{State: ata.StateFailedNow}}
		EvaluateAttributeBits(r)
		assert.Equal(t, FailAttr, r.Bits)
	})

	t.Run("SetsFailAttrWhenFailedInPast", func(t *testing.T) {
		r := NewReport("/dev/sda", "ata", time.Now())
		r.Attributes = []AttributeRow{{State: ata.StateFailedPast}}
		EvaluateAttributeBits(r)
		assert.Equal(t, FailAttr, r.Bits)
	})

	t.Run("NoFailingAttributesLeavesBitsClear", func(t *testing.T) {
		r := NewReport("/dev/sda", "ata", time.Now())
		r.Attributes = []AttributeRow{{State: ata.StateOK}}
		EvaluateAttributeBits(r)
		assert.Equal(t, ExitBit(0), r.Bits)
	})
}
