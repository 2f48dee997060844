// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

// Attribute is one slot of the 30-entry SMART attribute table.
type Attribute struct {
	ID      byte // 1-255; 0 means an empty slot
	Flags   uint16
	Current byte // normalized value, 0-255
	Worst   byte
	Raw     [6]byte
}

// AttributeFlag bits, per ATA/ATAPI attribute flag word.
const (
	AttrFlagPrefailure AttrFlag = 1 << iota
	AttrFlagOnline
	AttrFlagPerformance
	AttrFlagErrorRate
	AttrFlagEventCount
	AttrFlagSelfPreserving
	_
	_
	AttrFlagIncreasing // "ATTRFLAG_INCREASING": raw value must strictly increase to matter
)

type AttrFlag uint16

// AttributeTable holds the 30 fixed slots returned by ReadValues.
type AttributeTable struct {
	Revision uint16
	Entries  [30]Attribute
}

// ThresholdTable maps id -> threshold byte (0 means "always-pass"), parallel
// to AttributeTable.
type ThresholdTable struct {
	Revision uint16
	Entries  [30]struct {
		ID        byte
		Threshold byte
	}
}

// DecodeAttributeTable parses a 512-byte ReadValues page.
func DecodeAttributeTable(page []byte) AttributeTable {
	var t AttributeTable
	t.Revision = LE16(page[0:2])
	for i := 0; i < 30; i++ {
		off := 2 + i*12
		entry := page[off : off+12]
		t.Entries[i] = Attribute{
			ID:      entry[0],
			Flags:   LE16(entry[1:3]),
			Current: entry[3],
			Worst:   entry[4],
		}
		copy(t.Entries[i].Raw[:], entry[5:11])
	}
	return t
}

// DecodeThresholdTable parses a 512-byte ReadThresholds page.
func DecodeThresholdTable(page []byte) ThresholdTable {
	var t ThresholdTable
	t.Revision = LE16(page[0:2])
	for i := 0; i < 30; i++ {
		off := 2 + i*12
		t.Entries[i].ID = page[off]
		t.Entries[i].Threshold = page[off+1]
	}
	return t
}

// AttributeState is the derived function result from spec.md section 3.
type AttributeState int

const (
	StateNonExisting AttributeState = iota
	StateNoNormval
	StateNoThreshold
	StateBadThreshold
	StateFailedNow
	StateFailedPast
	StateOK
)

// DeriveAttributeState is a pure function of (current, worst, threshold,
// flags, id-match); no hidden context (invariant 4, spec.md section 8).
// idMismatch is true when the value-row id and threshold-row id disagree.
func DeriveAttributeState(id byte, current, worst, threshold byte, flags AttrFlag, hasThreshold, idMismatch bool) AttributeState {
	if id == 0 {
		return StateNonExisting
	}
	if idMismatch {
		return StateBadThreshold
	}
	if !hasThreshold {
		return StateNoThreshold
	}
	if current == 0 && worst == 0 {
		return StateNoNormval
	}
	if threshold == 0 {
		// Thresholds of zero always pass.
		return StateOK
	}
	if current <= threshold {
		return StateFailedNow
	}
	if worst <= threshold {
		return StateFailedPast
	}
	return StateOK
}

// AttributeFormat names one raw-value rendering tag from the round-trip law
// in spec.md section 8. RenderAttributeFormat and TemperatureFromAttribute in
// attrformat.go turn a raw value into text or a temperature for a given tag.
type AttributeFormat string

const (
	FormatRaw8          AttributeFormat = "raw8"
	FormatRaw16         AttributeFormat = "raw16"
	FormatRaw48         AttributeFormat = "raw48"
	FormatHex48         AttributeFormat = "hex48"
	FormatRaw64         AttributeFormat = "raw64"
	FormatHex64         AttributeFormat = "hex64"
	FormatRaw16Raw16    AttributeFormat = "raw16(raw16)"
	FormatRaw16Avg16    AttributeFormat = "raw16(avg16)"
	FormatRaw24Raw24    AttributeFormat = "raw24/raw24"
	FormatSec2Hour      AttributeFormat = "sec2hour"
	FormatMin2Hour      AttributeFormat = "min2hour"
	FormatHalfMin2Hour  AttributeFormat = "halfmin2hour"
	FormatTempMinMax    AttributeFormat = "tempminmax"
	FormatTemp10x       AttributeFormat = "temp10x"
)

// AttributeOverride is one user rule in the id -> {display_name,
// raw_format_tag, flags} override table, with a priority so a lower
// priority default can be shadowed by a higher priority user rule.
type AttributeOverride struct {
	ID          byte
	DisplayName string
	Format      AttributeFormat
	Flags       AttrFlag
	Priority    int
}

// AttributeOverrideTable resolves id -> the highest-priority override seen.
// The exact priority used to resolve conflicting -v directives targeting
// the same id is pinned to "last registration wins at equal priority,
// higher numeric priority wins otherwise" — see DESIGN.md's Open Questions
// section for the rationale.
type AttributeOverrideTable struct {
	byID map[byte]AttributeOverride
}

func NewAttributeOverrideTable() *AttributeOverrideTable {
	return &AttributeOverrideTable{byID: make(map[byte]AttributeOverride)}
}

func (t *AttributeOverrideTable) Register(o AttributeOverride) {
	existing, ok := t.byID[o.ID]
	if !ok || o.Priority >= existing.Priority {
		t.byID[o.ID] = o
	}
}

func (t *AttributeOverrideTable) Lookup(id byte) (AttributeOverride, bool) {
	o, ok := t.byID[id]
	return o, ok
}

// Default attribute ids for Current-Pending-Sector and
// Offline-Uncorrectable-Sector tracking (spec.md section 4.7 step 4), and
// for temperature (step 5); all are user-overridable via AttributeOverrideTable.
const (
	DefaultCurrentPendingSectorID    byte = 197
	DefaultOfflineUncorrectableID    byte = 198
	DefaultTemperatureID             byte = 194
	AlternateTemperatureIDAirflow    byte = 190
	AlternateTemperatureIDEndurance  byte = 220
)
