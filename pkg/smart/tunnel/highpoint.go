// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// Highpoint is a two-step dialect: an initial "get channel info" ioctl maps
// (ControllerID, Channel, PMPort) to an internal device id, and a
// subsequent ioctl carries the pass-through header naming that id.
type Highpoint struct {
	ControllerID int
	Channel      int
	PMPort       int

	internalID int
	resolved   bool
}

func (Highpoint) Name() string { return "highpoint" }

// ResolveChannel simulates the "get channel info" step, producing the
// internal device id the pass-through header must carry.
func (h *Highpoint) ResolveChannel(internalID int) {
	h.internalID = internalID
	h.resolved = true
}

func (h *Highpoint) Encode(cmd *ata.Command) (scsi.Request, error) {
	if !h.resolved {
		return scsi.Request{}, errors.New(errors.DiskBridgeNotFound, "highpoint channel info not resolved; call ResolveChannel first")
	}

	cdb := make(scsi.CDB, 16)
	cdb[0] = 0xE0 // vendor-specific highpoint passthrough opcode
	cdb[1] = byte(h.internalID)

	cur := cmd.Taskfile.Current
	cdb[5] = cur.Features.Value
	cdb[6] = cur.SectorCount.Value
	cdb[7] = cur.LBALow.Value
	cdb[8] = cur.LBAMid.Value
	cdb[9] = cur.LBAHigh.Value
	cdb[10] = cur.Command.Value

	dir := scsi.DirNone
	switch cmd.Direction {
	case ata.DirIn:
		dir = scsi.DirFromDevice
	case ata.DirOut:
		dir = scsi.DirToDevice
	}
	return scsi.Request{CDB: cdb, Direction: dir, Buffer: cmd.Buffer, TimeoutSecs: cmd.TimeoutSecs}, nil
}

func (h *Highpoint) Decode(req *scsi.Request) (ata.Result, error) {
	if len(req.Buffer) < 7 {
		return ata.Result{Buffer: req.Buffer}, nil
	}
	// Register-like header names decode analogously to a direct taskfile.
	return ata.Result{
		Output: ata.OutputRegisters{
			Error:       ata.Reg(req.Buffer[0]),
			SectorCount: ata.Reg(req.Buffer[1]),
			LBALow:      ata.Reg(req.Buffer[2]),
			LBAMid:      ata.Reg(req.Buffer[3]),
			LBAHigh:     ata.Reg(req.Buffer[4]),
			Device:      ata.Reg(req.Buffer[5]),
			Status:      ata.Reg(req.Buffer[6]),
		},
		Buffer: req.Buffer,
	}, nil
}
