// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// ThreeWareGeneration distinguishes the two 3ware firmware/ioctl shapes.
type ThreeWareGeneration int

const (
	ThreeWare678K ThreeWareGeneration = iota
	ThreeWare9000
)

// ThreeWare embeds an ATA taskfile in a vendor ioctl packet behind a 3ware
// (escalade) RAID controller. Unit selects a disk behind the controller
// (0-31). 3ware never attaches ATAPI devices internally, so PacketIdentify
// is refused unconditionally.
type ThreeWare struct {
	Generation ThreeWareGeneration
	Unit       int
}

func (t ThreeWare) Name() string {
	if t.Generation == ThreeWare9000 {
		return "3ware-9000"
	}
	return "3ware-678k"
}

func (t ThreeWare) Encode(cmd *ata.Command) (scsi.Request, error) {
	if t.Unit < 0 || t.Unit > 31 {
		return scsi.Request{}, errors.New(errors.SmartInvalidArgument, "3ware unit must be 0-31")
	}
	if cmd.Taskfile.Current.Command.Value == 0xA1 { // PacketIdentify
		return scsi.Request{}, errors.New(errors.DiskSelfTestNotCapable, "3ware controllers never attach ATAPI devices internally")
	}

	// The vendor packet travels as an opaque payload inside a 12-byte CDB;
	// byte 1 carries the generation tag and byte 2 the unit so Decode (and
	// the real ioctl path, which is driver-specific and out of this
	// module's transport scope) can recover which disk answered.
	cdb := make(scsi.CDB, 12)
	cdb[0] = 0xD8 // vendor-specific 3ware passthrough opcode
	cdb[1] = byte(t.Generation)
	cdb[2] = byte(t.Unit)

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

// Decode checks passthru.status and the error+fault bits of the returned
// command byte; any non-zero value is an io error, per spec.md section 4.5.
func (t ThreeWare) Decode(req *scsi.Request) (ata.Result, error) {
	if len(req.Buffer) < 2 {
		return ata.Result{Buffer: req.Buffer}, nil
	}
	status, errFault := req.Buffer[0], req.Buffer[1]
	if status != 0 || errFault != 0 {
		return ata.Result{}, errors.New(errors.SmartIO, "3ware passthrough reported non-zero status/error-fault")
	}
	return ata.Result{Buffer: req.Buffer}, nil
}
