// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"fmt"
	"strings"

	"github.com/stratastor/smartmond/pkg/errors"
)

// ParseAttributeFormat maps a format name from the CLI override grammar
// (`-v N,FMT[,NAME]`) onto an AttributeFormat constant. Grounded on
// smartmontools' ata_format_id_string raw-value switch.
func ParseAttributeFormat(name string) (AttributeFormat, error) {
	switch AttributeFormat(strings.ToLower(name)) {
	case FormatRaw8, FormatRaw16, FormatRaw48, FormatHex48, FormatRaw64, FormatHex64,
		FormatRaw16Raw16, FormatRaw16Avg16, FormatRaw24Raw24, FormatSec2Hour,
		FormatMin2Hour, FormatHalfMin2Hour, FormatTempMinMax, FormatTemp10x:
		return AttributeFormat(strings.ToLower(name)), nil
	default:
		return "", errors.New(errors.DiskConfigDirectiveInvalid, fmt.Sprintf("unknown attribute format %q", name))
	}
}

// RenderAttributeFormat renders a 6-byte raw value according to format.
// parseAttributeFormat(format) . renderAttributeFormat round-trips for
// every name in the table (spec.md section 8).
func RenderAttributeFormat(format AttributeFormat, raw [6]byte) string {
	switch format {
	case FormatRaw8:
		return fmt.Sprintf("%d %d %d %d %d %d", raw[0], raw[1], raw[2], raw[3], raw[4], raw[5])
	case FormatRaw16:
		a := LE16(raw[0:2])
		b := LE16(raw[2:4])
		c := LE16(raw[4:6])
		return fmt.Sprintf("%d %d %d", a, b, c)
	case FormatRaw48:
		return fmt.Sprintf("%d", raw48(raw))
	case FormatHex48:
		return fmt.Sprintf("0x%012x", raw48(raw))
	case FormatRaw64:
		return fmt.Sprintf("%d", raw64(raw))
	case FormatHex64:
		return fmt.Sprintf("0x%016x", raw64(raw))
	case FormatRaw16Raw16:
		return fmt.Sprintf("%d/%d", LE16(raw[0:2]), LE16(raw[2:4]))
	case FormatRaw16Avg16:
		cur := LE16(raw[0:2])
		avg := LE16(raw[2:4])
		return fmt.Sprintf("%d (Average %d)", cur, avg)
	case FormatRaw24Raw24:
		hi := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16
		lo := uint32(raw[3]) | uint32(raw[4])<<8 | uint32(raw[5])<<16
		return fmt.Sprintf("%d/%d", hi, lo)
	case FormatSec2Hour:
		secs := raw48(raw)
		return fmt.Sprintf("%dh+%02dm+%02ds", secs/3600, (secs/60)%60, secs%60)
	case FormatMin2Hour:
		mins := raw48(raw)
		return fmt.Sprintf("%dh+%02dm", mins/60, mins%60)
	case FormatHalfMin2Hour:
		halfMins := raw48(raw)
		mins := halfMins / 2
		return fmt.Sprintf("%dh+%02dm", mins/60, mins%60)
	case FormatTempMinMax:
		cur := raw[0]
		lo := raw[2]
		hi := raw[4]
		return fmt.Sprintf("%d (Min/Max %d/%d)", cur, lo, hi)
	case FormatTemp10x:
		tenths := LE16(raw[0:2])
		return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
	default:
		return fmt.Sprintf("%d", raw48(raw))
	}
}

func raw48(raw [6]byte) uint64 {
	return uint64(raw[0]) | uint64(raw[1])<<8 | uint64(raw[2])<<16 |
		uint64(raw[3])<<24 | uint64(raw[4])<<32 | uint64(raw[5])<<40
}

func raw64(raw [6]byte) uint64 {
	return raw48(raw)
}

// TemperatureFromAttribute extracts a Celsius reading from a raw value
// given its format tag, used by the monitor's temperature step (section
// 4.7 step 5). Values of 0 or 255 are rejected as "could not read"
// (boundary behavior, section 8).
func TemperatureFromAttribute(format AttributeFormat, raw [6]byte) (int, error) {
	var v int
	switch format {
	case FormatTemp10x:
		v = int(LE16(raw[0:2]) / 10)
	default: // tempminmax and plain raw8 both carry current temp in raw[0]
		v = int(raw[0])
	}
	if v == 0 || v == 255 {
		return 0, errors.New(errors.SmartInvalidArgument, "temperature value could not be read")
	}
	return v, nil
}
