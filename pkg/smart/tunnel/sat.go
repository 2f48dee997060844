// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package tunnel implements the bridge dialects that let an ATA taskfile
// ride inside a SCSI CDB: SAT, Cypress, JMicron, Sunplus USB bridges, and
// the 3ware/Highpoint/CCISS RAID-enclosure ioctl packets.
package tunnel

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// SAT protocol field values (ATA PASS-THROUGH byte 1, bits 4:1).
const (
	satProtocolNonData = 3
	satProtocolPIOIn   = 4
	satProtocolPIOOut  = 5
)

// SAT is the ATA PASS-THROUGH 12 (0xA1) / 16 (0x85) dialect.
type SAT struct {
	Use16Byte bool
}

func (SAT) Name() string { return "sat" }

// Encode builds an ATA PASS-THROUGH CDB. Byte 1 is protocol<<1|extend; byte
// 2 is (ck_cond<<5)|(t_dir<<3)|(byte_block<<2)|t_length. t_length=2 means
// "sector count holds the count". When any output register is needed,
// ck_cond is set so the SAT layer returns an ATA RETURN DESCRIPTOR.
func (s SAT) Encode(cmd *ata.Command) (scsi.Request, error) {
	extend := 0
	if cmd.Taskfile.Is48Bit {
		extend = 1
	}
	if extend == 1 && !s.Use16Byte {
		return scsi.Request{}, errors.New(errors.DiskDialectUnsupported, "48-bit command requires the 16-byte SAT CDB")
	}

	protocol := satProtocolNonData
	dir := scsi.DirNone
	switch cmd.Direction {
	case ata.DirIn:
		protocol = satProtocolPIOIn
		dir = scsi.DirFromDevice
	case ata.DirOut:
		protocol = satProtocolPIOOut
		dir = scsi.DirToDevice
	}

	ckCond := 0
	if cmd.NeedError || cmd.NeedStatus || cmd.NeedSector || cmd.NeedLBA || cmd.NeedDevice {
		ckCond = 1
	}
	tDir := 0
	if dir == scsi.DirFromDevice {
		tDir = 1
	}

	byte1 := byte(protocol<<1 | extend)
	byte2 := byte(ckCond<<5 | tDir<<3 | 1<<2 | 2) // byte_block=1, t_length=2 (sector count)

	cur := cmd.Taskfile.Current
	var cdb scsi.CDB
	if s.Use16Byte {
		prev := cmd.Taskfile.Previous
		cdb = make(scsi.CDB, 16)
		cdb[0] = 0x85
		cdb[1] = byte1
		cdb[2] = byte2
		cdb[3] = prev.Features.Value
		cdb[4] = cur.Features.Value
		cdb[5] = prev.SectorCount.Value
		cdb[6] = cur.SectorCount.Value
		cdb[7] = prev.LBALow.Value
		cdb[8] = cur.LBALow.Value
		cdb[9] = prev.LBAMid.Value
		cdb[10] = cur.LBAMid.Value
		cdb[11] = prev.LBAHigh.Value
		cdb[12] = cur.LBAHigh.Value
		cdb[13] = cur.Device.Value
		cdb[14] = cur.Command.Value
	} else {
		cdb = make(scsi.CDB, 12)
		cdb[0] = 0xA1
		cdb[1] = byte1
		cdb[2] = byte2
		cdb[3] = cur.Features.Value
		cdb[4] = cur.SectorCount.Value
		cdb[5] = cur.LBALow.Value
		cdb[6] = cur.LBAMid.Value
		cdb[7] = cur.LBAHigh.Value
		cdb[8] = cur.Device.Value
		cdb[9] = cur.Command.Value
	}

	return scsi.Request{CDB: cdb, Direction: dir, Buffer: cmd.Buffer, TimeoutSecs: cmd.TimeoutSecs}, nil
}

// Decode extracts the 14-byte ATA RETURN DESCRIPTOR (type 9) from
// descriptor-format sense and projects it onto the seven output registers.
// Encoding a SAT CDB from a taskfile and decoding the descriptor back is
// the identity on those seven registers when ck_cond=1 (round-trip law,
// spec.md section 8).
func (s SAT) Decode(req *scsi.Request) (ata.Result, error) {
	sense, err := scsi.DissectSense(req.Sense[:])
	if err != nil {
		return ata.Result{}, err
	}
	desc, ok := scsi.FindDescriptor(sense, scsi.ATAReturnDescriptorType)
	if !ok || len(desc.Data) < 12 {
		if half, ok := s.decodeHalfTruncated(sense); ok {
			return half, nil
		}
		return ata.Result{}, errors.New(errors.SmartProtocol, "ATA RETURN DESCRIPTOR not present in sense data")
	}

	d := desc.Data
	return ata.Result{
		Output: ata.OutputRegisters{
			Error:       ata.Reg(d[1]),
			SectorCount: ata.Reg(d[3]),
			LBALow:      ata.Reg(d[5]),
			LBAMid:      ata.Reg(d[7]),
			LBAHigh:     ata.Reg(d[9]),
			Device:      ata.Reg(d[10]),
			Status:      ata.Reg(d[11]),
		},
		Buffer: req.Buffer,
	}, nil
}

// decodeHalfTruncated accepts the degraded sense sequences some buggy
// bridges produce for a pure status check, where only one of lba_mid/
// lba_high survives the round trip. This is an explicit open question in
// DESIGN.md (spec.md section 9): kept as a best-effort ok/failing decode
// rather than promoted to a hard protocol error.
func (SAT) decodeHalfTruncated(sense scsi.Sense) (ata.Result, bool) {
	if len(sense.Descriptors) == 0 {
		return ata.Result{}, false
	}
	for _, d := range sense.Descriptors {
		if d.Type == scsi.ATAReturnDescriptorType && len(d.Data) >= 10 {
			return ata.Result{
				Output: ata.OutputRegisters{
					LBAMid:  ata.Reg(d.Data[7]),
					LBAHigh: ata.Reg(d.Data[9]),
				},
			}, true
		}
	}
	return ata.Result{}, false
}
