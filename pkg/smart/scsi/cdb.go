// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package scsi builds and decodes SCSI command descriptor blocks and sense
// data: INQUIRY, LOG SENSE, MODE SENSE/SELECT, REQUEST SENSE, TEST UNIT
// READY, SEND DIAGNOSTIC, Informational Exceptions, and self-test/start-stop
// pages.
package scsi

import "github.com/stratastor/smartmond/pkg/errors"

// Direction is the data-transfer direction of a Request, mirroring the
// sgio.CDBDirection convention read from the grounding example.
type Direction int

const (
	DirNone Direction = iota
	DirToDevice
	DirFromDevice
)

// CDB is a SCSI command descriptor block of length 6/10/12/16.
type CDB []byte

// Request bundles a CDB, direction, data buffer, timeout, and the inbound
// sense buffer.
type Request struct {
	CDB         CDB
	Direction   Direction
	Buffer      []byte
	TimeoutSecs int
	Sense       [32]byte
}

// Opcodes used by this package's encoders.
const (
	opInquiry        byte = 0x12
	opLogSense       byte = 0x4D
	opModeSense6     byte = 0x1A
	opModeSense10    byte = 0x5A
	opModeSelect6    byte = 0x15
	opModeSelect10   byte = 0x55
	opRequestSense   byte = 0x03
	opTestUnitReady  byte = 0x00
	opSendDiagnostic byte = 0x1D
)

// Inquiry builds a plain (evpd=false) or VPD (evpd=true, pageCode) INQUIRY
// CDB. allocLen is normally 36; some bridges refuse that length and the
// caller retries with 64 (autodetect step 1).
func Inquiry(evpd bool, pageCode byte, allocLen byte) Request {
	cdb := make(CDB, 6)
	cdb[0] = opInquiry
	if evpd {
		cdb[1] = 0x01
		cdb[2] = pageCode
	}
	cdb[4] = allocLen
	return Request{CDB: cdb, Direction: DirFromDevice, Buffer: make([]byte, allocLen)}
}

// LogSense builds a LOG SENSE CDB for page pageCode with PC=1 (current
// cumulative values), the only page-control value this module uses.
func LogSense(pageCode byte, allocLen uint16) Request {
	cdb := make(CDB, 10)
	cdb[0] = opLogSense
	cdb[2] = 0x40 | (pageCode & 0x3f) // PC=1 << 6 | page code
	cdb[7] = byte(allocLen >> 8)
	cdb[8] = byte(allocLen)
	return Request{CDB: cdb, Direction: DirFromDevice, Buffer: make([]byte, allocLen)}
}

// ModeSense6/ModeSense10 build MODE SENSE CDBs for pageCode.
func ModeSense6(pageCode byte, allocLen byte) Request {
	cdb := make(CDB, 6)
	cdb[0] = opModeSense6
	cdb[2] = pageCode & 0x3f
	cdb[4] = allocLen
	return Request{CDB: cdb, Direction: DirFromDevice, Buffer: make([]byte, allocLen)}
}

func ModeSense10(pageCode byte, allocLen uint16) Request {
	cdb := make(CDB, 10)
	cdb[0] = opModeSense10
	cdb[2] = pageCode & 0x3f
	cdb[7] = byte(allocLen >> 8)
	cdb[8] = byte(allocLen)
	return Request{CDB: cdb, Direction: DirFromDevice, Buffer: make([]byte, allocLen)}
}

// ModeSelect preserves the layout of the preceding MODE SENSE response: it
// zeroes the data-length header byte(s) and masks the PS bit out of byte 0
// of the page, per spec.md section 4.4.
func ModeSelect(senseResponse []byte, use10Byte bool) (Request, error) {
	if len(senseResponse) < 4 {
		return Request{}, errors.New(errors.SmartInvalidArgument, "mode sense response too short")
	}
	page := make([]byte, len(senseResponse))
	copy(page, senseResponse)

	var headerLen int
	if use10Byte {
		headerLen = 8
		page[0], page[1] = 0, 0
	} else {
		headerLen = 4
		page[0] = 0
	}
	if len(page) > headerLen {
		page[headerLen] &^= 0x80 // PS bit
	}

	if use10Byte {
		cdb := make(CDB, 10)
		cdb[0] = opModeSelect10
		cdb[1] = 0x10 // PF bit
		cdb[7] = byte(len(page) >> 8)
		cdb[8] = byte(len(page))
		return Request{CDB: cdb, Direction: DirToDevice, Buffer: page}, nil
	}
	cdb := make(CDB, 6)
	cdb[0] = opModeSelect6
	cdb[1] = 0x10
	cdb[4] = byte(len(page))
	return Request{CDB: cdb, Direction: DirToDevice, Buffer: page}, nil
}

// RequestSense builds a REQUEST SENSE CDB.
func RequestSense(allocLen byte) Request {
	cdb := make(CDB, 6)
	cdb[0] = opRequestSense
	cdb[4] = allocLen
	return Request{CDB: cdb, Direction: DirFromDevice, Buffer: make([]byte, allocLen)}
}

// TestUnitReady builds a TEST UNIT READY CDB.
func TestUnitReady() Request {
	return Request{CDB: make(CDB, 6), Direction: DirNone}
}

// SelfTestMode selects the SEND DIAGNOSTIC self-test field.
type SelfTestMode byte

const (
	SendDiagNoSelfTest      SelfTestMode = 0
	SendDiagDefaultSelfTest SelfTestMode = 0x04
	SendDiagShortSelfTest   SelfTestMode = 0x01
	SendDiagExtendedSelfTest SelfTestMode = 0x02
	SendDiagAbortSelfTest   SelfTestMode = 0x03
)

// SendDiagnostic builds a SEND DIAGNOSTIC CDB for mode.
func SendDiagnostic(mode SelfTestMode) Request {
	cdb := make(CDB, 6)
	cdb[0] = opSendDiagnostic
	cdb[1] = byte(mode) << 5
	return Request{CDB: cdb, Direction: DirNone}
}
