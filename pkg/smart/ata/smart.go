// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package ata builds and decodes ATA taskfile commands for the SMART
// command family: IDENTIFY, attribute/threshold tables, self-test and error
// logs, selective self-test spans, and SCT temperature history.
package ata

import (
	"fmt"

	"github.com/stratastor/smartmond/pkg/errors"
)

// SubCommand names one member of the SMART command family. The zero value
// is intentionally invalid so a caller must pick one.
type SubCommand int

const (
	ReadValues SubCommand = iota + 1
	ReadThresholds
	ReadLog
	WriteLog
	Identify
	PacketIdentify
	Enable
	Disable
	AutoOfflineEnable
	AutoOfflineDisable
	AutoSaveEnable
	AutoSaveDisable
	ImmediateOffline
	Status
	StatusCheck
	CheckPowerMode
)

// SMART sub-opcodes carried in the features register, per ATA/ATAPI-5..8.
const (
	opReadData        byte = 0xD0
	opReadThreshold   byte = 0xD1
	opAutoSave        byte = 0xD2
	opImmediateOffline byte = 0xD4
	opReadLogSector   byte = 0xD5
	opWriteLogSector  byte = 0xD6
	opEnable          byte = 0xD8
	opDisable         byte = 0xD9
	opStatus          byte = 0xDA
	opAutoOffline     byte = 0xDB
)

// Command registers shared by every SMART sub-command.
const (
	cmdSmart          byte = 0xB0
	cmdIdentify       byte = 0xEC
	cmdPacketIdentify byte = 0xA1
	cmdCheckPowerMode byte = 0xE5

	lbaMidSignature  byte = 0x4F
	lbaHighSignature byte = 0xC2
)

// BuildCommand encodes sub into a Command ready for a platform.Port. For every
// SMART sub-command selector is written to the sector-count register (for
// ReadLog/WriteLog it is the log address); Identify, PacketIdentify and
// CheckPowerMode ignore it.
func BuildCommand(sub SubCommand, selector byte, buf []byte) (Command, error) {
	var c Command
	c.Taskfile.Current.LBAMid = Reg(lbaMidSignature)
	c.Taskfile.Current.LBAHigh = Reg(lbaHighSignature)

	switch sub {
	case Identify:
		c.Taskfile.Current.Command = Reg(cmdIdentify)
		c.Direction = DirIn
		c.SectorCount = 1
	case PacketIdentify:
		c.Taskfile.Current.Command = Reg(cmdPacketIdentify)
		c.Direction = DirIn
		c.SectorCount = 1
	case CheckPowerMode:
		c.Taskfile.Current.Command = Reg(cmdCheckPowerMode)
		c.NeedSector = true
		c.Direction = DirNone
	default:
		c.Taskfile.Current.Command = Reg(cmdSmart)
		op, dir, sectors, err := subOpcode(sub, selector)
		if err != nil {
			return Command{}, err
		}
		c.Taskfile.Current.Features = Reg(op)
		c.Taskfile.Current.SectorCount = Reg(selector)
		c.Direction = dir
		c.SectorCount = sectors
	}

	if c.Direction != DirNone {
		want := c.SectorCount * 512
		if buf == nil {
			buf = make([]byte, want)
		}
		if len(buf) != want {
			return Command{}, errors.New(errors.SmartInvalidArgument,
				fmt.Sprintf("buffer size %d does not match sector_count*512=%d", len(buf), want))
		}
	}
	c.Buffer = buf
	c.NeedError = true
	c.NeedStatus = true
	return c, nil
}

func subOpcode(sub SubCommand, selector byte) (op byte, dir Direction, sectors int, err error) {
	switch sub {
	case ReadValues:
		return opReadData, DirIn, 1, nil
	case ReadThresholds:
		return opReadThreshold, DirIn, 1, nil
	case ReadLog:
		return opReadLogSector, DirIn, 1, nil
	case WriteLog:
		return opWriteLogSector, DirOut, 1, nil
	case Enable:
		return opEnable, DirNone, 0, nil
	case Disable:
		return opDisable, DirNone, 0, nil
	case AutoOfflineEnable:
		return opAutoOffline, DirNone, 0, nil
	case AutoOfflineDisable:
		return opAutoOffline, DirNone, 0, nil
	case AutoSaveEnable:
		return opAutoSave, DirNone, 0, nil
	case AutoSaveDisable:
		return opAutoSave, DirNone, 0, nil
	case ImmediateOffline:
		return opImmediateOffline, DirNone, 0, nil
	case Status, StatusCheck:
		return opStatus, DirNone, 0, nil
	default:
		return 0, DirNone, 0, errors.New(errors.SmartInvalidArgument, fmt.Sprintf("unknown SMART sub-command %d", sub))
	}
}

// HealthStatus is the decoded outcome of a status_check command.
type HealthStatus int

const (
	HealthOK HealthStatus = iota
	HealthFailing
	HealthOKHalfMatch
	HealthProtocolError
)

// DecodeHealthStatus inspects the lba_mid/lba_high pair returned by a
// status_check command per spec.md section 4.3.
func DecodeHealthStatus(mid, high byte) (HealthStatus, error) {
	switch {
	case mid == 0x4F && high == 0xC2:
		return HealthOK, nil
	case mid == 0xF4 && high == 0x2C:
		return HealthFailing, nil
	case high == 0xC2 && mid != 0x4F:
		return HealthOKHalfMatch, nil
	case mid == 0x4F && high != 0xC2:
		return HealthOKHalfMatch, nil
	default:
		return HealthProtocolError, errors.New(errors.DiskProtocolMismatch,
			fmt.Sprintf("status-check registers lba_mid=%#02x lba_high=%#02x match neither signature", mid, high))
	}
}
