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
	sunplusSetPrevSubcmd  byte = 0x23
	sunplusPassThruSubcmd byte = 0x22
	sunplusReadRegsSubcmd byte = 0x21
)

// Sunplus is the 12-byte CDB dialect starting 0xF8 0x00 <subcmd>.
type Sunplus struct{}

func (Sunplus) Name() string { return "sunplus" }

// Encode issues the pass-through subcommand (0x22); a 48-bit command first
// needs a separate 0x23 call to pre-set the "previous" register half,
// which callers issue via PreSetPrevious before calling Encode.
func (Sunplus) Encode(cmd *ata.Command) (scsi.Request, error) {
	cdb := make(scsi.CDB, 12)
	cdb[0] = 0xF8
	cdb[1] = 0x00
	cdb[2] = sunplusPassThruSubcmd

	protocol := byte(0)
	dir := scsi.DirNone
	switch cmd.Direction {
	case ata.DirIn:
		protocol = 0x10
		dir = scsi.DirFromDevice
	case ata.DirOut:
		protocol = 0x11
		dir = scsi.DirToDevice
	}
	cdb[3] = protocol
	cdb[4] = cmd.Taskfile.Previous.SectorCount.Value // sector-count-high-byte

	cur := cmd.Taskfile.Current
	cdb[5] = cur.Features.Value
	cdb[6] = cur.SectorCount.Value
	cdb[7] = cur.LBALow.Value
	cdb[8] = cur.LBAMid.Value
	cdb[9] = cur.LBAHigh.Value
	cdb[10] = cur.Command.Value

	return scsi.Request{CDB: cdb, Direction: dir, Buffer: cmd.Buffer, TimeoutSecs: cmd.TimeoutSecs}, nil
}

// PreSetPrevious builds the 0x23 subcommand that pre-sets the "previous"
// half of the 48-bit registers ahead of a 48-bit pass-through.
func (Sunplus) PreSetPrevious(prev ata.InputRegisters) scsi.Request {
	cdb := make(scsi.CDB, 12)
	cdb[0] = 0xF8
	cdb[1] = 0x00
	cdb[2] = sunplusSetPrevSubcmd
	cdb[5] = prev.Features.Value
	cdb[6] = prev.SectorCount.Value
	cdb[7] = prev.LBALow.Value
	cdb[8] = prev.LBAMid.Value
	cdb[9] = prev.LBAHigh.Value
	return scsi.Request{CDB: cdb, Direction: scsi.DirNone}
}

// ReadRegisters builds the 0x21 subcommand retrieving 8 output register
// bytes.
func (Sunplus) ReadRegisters() scsi.Request {
	cdb := make(scsi.CDB, 12)
	cdb[0] = 0xF8
	cdb[1] = 0x00
	cdb[2] = sunplusReadRegsSubcmd
	return scsi.Request{CDB: cdb, Direction: scsi.DirFromDevice, Buffer: make([]byte, 8)}
}

// Decode translates sense key 3 (medium error) to an ATA-command-level
// failure rather than a media failure, per spec.md section 4.5.
func (Sunplus) Decode(req *scsi.Request) (ata.Result, error) {
	sense, err := scsi.DissectSense(req.Sense[:])
	if err == nil && sense.Key == scsi.SenseMediumError {
		return ata.Result{}, errors.New(errors.SmartIO, "sunplus: ATA command-level failure reported as medium error")
	}
	return ata.Result{Buffer: req.Buffer}, nil
}
