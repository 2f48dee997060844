// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

const (
	jmicronPortStatusAddr byte = 0x0F // high byte of register address 0x720F
	jmicronPort0Bit       byte = 0x04
	jmicronPort1Bit       byte = 0x40
	jmicronSelectorPort0  byte = 0xA0
	jmicronSelectorPort1  byte = 0xB0
)

// JMicron is the 12-byte CDB dialect starting with 0xDF; it supports only
// 28-bit ATA.
type JMicron struct {
	Port int // 0 or 1; -1 means "not yet resolved"
}

func (JMicron) Name() string { return "jmicron" }

// ResolveJMicronPort reads the port-status register at 0x720F and disambiguates
// the target port per spec.md section 4.5. Both bits set is ambiguous and
// is a hard open-time failure (end-to-end scenario 4, spec.md section 8).
func ResolveJMicronPort(statusByte byte) (int, error) {
	port0 := statusByte&jmicronPort0Bit != 0
	port1 := statusByte&jmicronPort1Bit != 0
	switch {
	case port0 && port1:
		return 0, errors.New(errors.SmartInvalidArgument, "Two devices connected, try '-d usbjmicron,[01]'")
	case port0:
		return 0, nil
	case port1:
		return 1, nil
	default:
		return 0, errors.New(errors.DiskBridgeAmbiguous, "no JMicron port reported ready")
	}
}

func (j JMicron) Encode(cmd *ata.Command) (scsi.Request, error) {
	if cmd.Taskfile.Is48Bit {
		return scsi.Request{}, errors.New(errors.DiskDialectUnsupported, "jmicron dialect does not support 48-bit commands")
	}

	cdb := make(scsi.CDB, 12)
	cdb[0] = 0xDF
	dir := scsi.DirNone
	switch cmd.Direction {
	case ata.DirIn:
		cdb[1] = 0x10
		dir = scsi.DirFromDevice
	case ata.DirOut:
		cdb[1] = 0x00
		dir = scsi.DirToDevice
	}

	cur := cmd.Taskfile.Current
	cdb[5] = cur.Features.Value
	cdb[6] = cur.SectorCount.Value
	cdb[7] = cur.LBALow.Value
	cdb[8] = cur.LBAMid.Value
	cdb[9] = cur.LBAHigh.Value
	cdb[10] = cur.Command.Value
	if j.Port == 1 {
		cdb[11] = jmicronSelectorPort1
	} else {
		cdb[11] = jmicronSelectorPort0
	}

	return scsi.Request{CDB: cdb, Direction: dir, Buffer: cmd.Buffer, TimeoutSecs: cmd.TimeoutSecs}, nil
}

// Decode maps the one-byte SMART-STATUS output per spec.md section 4.5:
// {0x01,0xC2} -> ok, {0x00,0x2C} -> failing.
func (j JMicron) Decode(req *scsi.Request) (ata.Result, error) {
	if len(req.Buffer) < 1 {
		return ata.Result{Buffer: req.Buffer}, nil
	}
	b := req.Buffer[0]
	switch b {
	case 0x01:
		return ata.Result{Output: ata.OutputRegisters{LBAMid: ata.Reg(0x4F), LBAHigh: ata.Reg(0xC2)}}, nil
	case 0x00:
		return ata.Result{Output: ata.OutputRegisters{LBAMid: ata.Reg(0xF4), LBAHigh: ata.Reg(0x2C)}}, nil
	default:
		return ata.Result{}, errors.New(errors.SmartProtocol, "unrecognized jmicron SMART-STATUS byte")
	}
}
