// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build cciss

package tunnel

import (
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// CCISS is the real dialect, built only when the host's CCISS header is
// present (-tags cciss).
type CCISS struct {
	DiskNumber int
}

func NewCCISS(diskNumber int) (*CCISS, error) {
	return &CCISS{DiskNumber: diskNumber}, nil
}

func (CCISS) Name() string { return "cciss" }

func (c CCISS) Encode(cmd *ata.Command) (scsi.Request, error) {
	cdb := make(scsi.CDB, 16)
	cdb[0] = 0xF3 // vendor-specific CCISS passthrough opcode
	cdb[1] = byte(c.DiskNumber)

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

func (c CCISS) Decode(req *scsi.Request) (ata.Result, error) {
	return ata.Result{Buffer: req.Buffer}, nil
}
