// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import "github.com/stratastor/smartmond/pkg/errors"

// SCT log addresses, per spec.md section 4.3.
const (
	SCTStatusReadAddr  byte = 0xE0
	SCTCommandWriteAddr byte = 0xE0
	SCTDataTableAddr   byte = 0xE1
)

const sctExternalStatusBusy uint16 = 0xFFFF

// SCTStatus is the decoded SCT status log (0xE0 read).
type SCTStatus struct {
	FormatVersion  uint16
	SCTVersion     uint16
	SCTSupport     uint16
	ExternalStatus uint16
	ActionCode     uint16
	FunctionCode   uint16
}

func DecodeSCTStatus(page []byte) SCTStatus {
	return SCTStatus{
		FormatVersion:  LE16(page[0:2]),
		SCTVersion:     LE16(page[2:4]),
		SCTSupport:     LE16(page[4:6]),
		ExternalStatus: LE16(page[8:10]),
		ActionCode:     LE16(page[10:12]),
		FunctionCode:   LE16(page[12:14]),
	}
}

// SCTTemperatureHistoryTableID is the "Data Table read, table id 2" value
// used to fetch the temperature history table.
const SCTTemperatureHistoryTableID uint16 = 2

// SCTDataTableCommand builds the 512-byte command page for a Data Table
// read with the given table id, per the precondition chain in spec.md
// section 4.3: refuse if status.ExternalStatus == busy, otherwise issue
// this command then read the data sector and re-verify status.
func SCTDataTableCommand(tableID uint16) []byte {
	cmd := make([]byte, 512)
	PutLE16(cmd[0:2], 5) // function code: data table
	PutLE16(cmd[2:4], 1) // action code: read table
	PutLE16(cmd[4:6], tableID)
	return cmd
}

// SCTFeatureControlCommand builds a "Feature Control" command page to set
// the temperature logging interval. persistent controls whether the
// setting survives power cycles.
func SCTFeatureControlCommand(intervalMinutes uint16, persistent bool) []byte {
	cmd := make([]byte, 512)
	PutLE16(cmd[0:2], 4) // function code: feature control
	PutLE16(cmd[2:4], 1) // action code: set
	PutLE16(cmd[4:6], 3) // feature code: temperature logging interval
	PutLE16(cmd[6:8], intervalMinutes)
	if persistent {
		PutLE16(cmd[8:10], 1)
	}
	return cmd
}

// CheckSCTReady refuses the read/write if another SCT command is already in
// flight (external status == busy).
func CheckSCTReady(status SCTStatus) error {
	if status.ExternalStatus == sctExternalStatusBusy {
		return errors.New(errors.SmartBusy, "another SCT command is in progress")
	}
	return nil
}

// VerifySCTEcho confirms the status page echoes back the action/function
// codes issued, per the final step of the read chain.
func VerifySCTEcho(status SCTStatus, actionCode, functionCode uint16) error {
	if status.ActionCode != actionCode || status.FunctionCode != functionCode {
		return errors.New(errors.SmartProtocol, "SCT status did not echo issued command codes")
	}
	return nil
}

// TemperatureHistory is the decoded subset of the SCT temperature history
// data table needed by the monitor.
type TemperatureHistory struct {
	SamplingPeriodMinutes uint16
	LoggingIntervalMinutes uint16
	CurrentTemp           int8
	MinTemp               int8
	MaxTemp               int8
}

func DecodeTemperatureHistory(page []byte) TemperatureHistory {
	return TemperatureHistory{
		SamplingPeriodMinutes:  LE16(page[0:2]),
		LoggingIntervalMinutes: LE16(page[2:4]),
		CurrentTemp:            int8(page[4]),
		MinTemp:                int8(page[6]),
		MaxTemp:                int8(page[7]),
	}
}
