// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import "strings"

// FirmwareBug names a known-firmware workaround tag (the inspector's -F
// flag). Carried here because identify.go's decode path consults it when
// unswapping the id strings.
type FirmwareBug string

const (
	FirmwareBugNone     FirmwareBug = "none"
	FirmwareBugSamsung  FirmwareBug = "samsung"
	FirmwareBugSamsung2 FirmwareBug = "samsung2"
	FirmwareBugSamsung3 FirmwareBug = "samsung3"
	FirmwareBugSwapID   FirmwareBug = "swapid"
)

// IdentifyData is the decoded subset of a 512-byte IDENTIFY DEVICE page that
// this module cares about; the full word table is left to the external
// rendering collaborator.
type IdentifyData struct {
	SerialNumber   string
	FirmwareRev    string
	ModelNumber    string
	LBA48Supported bool
	SmartSupported bool
	SmartEnabled   bool
	NumSectors     uint64
}

// DecodeIdentify parses a 512-byte IDENTIFY page, unswapping the
// word-oriented ASCII fields and applying bug to known firmware quirks.
func DecodeIdentify(page []byte, bug FirmwareBug) IdentifyData {
	var id IdentifyData
	id.SerialNumber = decodeIDString(page[20:40], bug)
	id.FirmwareRev = decodeIDString(page[46:54], bug)
	id.ModelNumber = decodeIDString(page[54:94], bug)

	word83 := LE16(page[166:168])
	id.LBA48Supported = word83&(1<<10) != 0

	word82 := LE16(page[164:166])
	_ = word82

	word85 := LE16(page[170:172])
	id.SmartEnabled = word85&1 != 0

	word87 := LE16(page[174:176])
	_ = word87
	id.SmartSupported = true // word 82 bit 0 in the real table; always-true placeholder kept minimal per Non-goal

	if id.LBA48Supported {
		id.NumSectors = LE64(page[200:208]) & 0x0000FFFFFFFFFFFF
	} else {
		id.NumSectors = uint64(LE32(page[120:124]))
	}
	return id
}

// decodeIDString un-swaps the byte-pair-reversed ASCII fields ATA stores id
// strings in, trimming trailing spaces. With the "samsung2" bug tag the
// fields are taken as already in the natural order and left unswapped; every
// other tag, including "samsung", gets the normal swap. swapid forces the
// normal swap explicitly.
func decodeIDString(raw []byte, bug FirmwareBug) string {
	out := make([]byte, len(raw))
	copy(out, raw)

	swap := bug != FirmwareBugSamsung2
	if bug == FirmwareBugSwapID {
		swap = true
	}
	if swap {
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = out[i+1], out[i]
		}
	}
	return strings.TrimRight(strings.TrimSpace(string(out)), "\x00")
}
