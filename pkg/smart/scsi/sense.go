// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scsi

import "github.com/stratastor/smartmond/pkg/errors"

// SenseKey is the 4-bit sense key.
type SenseKey byte

const (
	SenseNoSense       SenseKey = 0x0
	SenseRecoveredErr  SenseKey = 0x1
	SenseNotReady      SenseKey = 0x2
	SenseMediumError   SenseKey = 0x3
	SenseHardwareError SenseKey = 0x4
	SenseIllegalRequest SenseKey = 0x5
	SenseUnitAttention SenseKey = 0x6
	SenseDataProtect   SenseKey = 0x7
)

// Sense is the common {response_code, key, asc, ascq} projection both fixed
// and descriptor sense formats dissect onto.
type Sense struct {
	ResponseCode byte
	Key          SenseKey
	ASC          byte
	ASCQ         byte
	Descriptors  []Descriptor // only populated for descriptor-format sense
}

// Descriptor is one sense descriptor (descriptor-format sense only).
type Descriptor struct {
	Type byte
	Data []byte
}

// ATAReturnDescriptorType is the SAT ATA RETURN DESCRIPTOR's type value.
const ATAReturnDescriptorType byte = 9

// DissectSense accepts both fixed (0x70/0x71) and descriptor (0x72/0x73)
// sense formats and projects them onto the common tuple.
func DissectSense(buf []byte) (Sense, error) {
	if len(buf) < 8 {
		return Sense{}, errors.New(errors.SmartProtocol, "sense buffer too short")
	}
	respCode := buf[0] & 0x7f

	switch respCode {
	case 0x70, 0x71:
		s := Sense{ResponseCode: respCode, Key: SenseKey(buf[2] & 0x0f)}
		if len(buf) > 13 {
			s.ASC = buf[12]
			s.ASCQ = buf[13]
		}
		return s, nil
	case 0x72, 0x73:
		s := Sense{ResponseCode: respCode, Key: SenseKey(buf[1] & 0x0f), ASC: buf[2], ASCQ: buf[3]}
		if len(buf) > 7 {
			addlLen := int(buf[7])
			s.Descriptors = parseDescriptors(buf[8:min(len(buf), 8+addlLen)])
		}
		return s, nil
	default:
		return Sense{}, errors.New(errors.SmartProtocol, "unrecognized sense response code")
	}
}

func parseDescriptors(buf []byte) []Descriptor {
	var out []Descriptor
	for i := 0; i+2 <= len(buf); {
		descType := buf[i]
		if i+1 >= len(buf) {
			break
		}
		length := int(buf[i+1])
		end := i + 2 + length
		if end > len(buf) {
			end = len(buf)
		}
		out = append(out, Descriptor{Type: descType, Data: buf[i+2 : end]})
		i = end
	}
	return out
}

// FindDescriptor scans s.Descriptors for one matching descType, used by
// SAT's ATA RETURN DESCRIPTOR (type 9) lookup.
func FindDescriptor(s Sense, descType byte) (Descriptor, bool) {
	for _, d := range s.Descriptors {
		if d.Type == descType {
			return d, true
		}
	}
	return Descriptor{}, false
}
