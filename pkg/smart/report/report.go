// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package report builds the inspector's one-shot device report and carries
// the exit code bitmasks both CLI surfaces use (spec.md section 6).
package report

import (
	"time"

	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// ExitBit is one flag in the inspector's exit status bitmask.
type ExitBit int

const (
	FailCmd    ExitBit = 1 << iota // a command-line option failed to parse or a command itself failed
	FailDev                        // device open/close failed
	FailSmart                      // SMART-specific command failed
	FailStatus                     // SMART health status check indicated FAILING
	FailAttr                       // an attribute is failing now or failed in the past
	FailAge                        // self-test error newer than the previous report
	FailPrev                       // self-test log error count increased
	FailLog                        // reading a log (error, self-test, selective) failed
)

// DaemonExit is one of the daemon's process exit codes.
type DaemonExit int

const (
	ExitOK DaemonExit = iota
	ExitBadCmd
	ExitBadConf
	ExitStartup
	ExitPID
	ExitNoConf
	ExitReadConf
	ExitNoMem
	ExitBadCode
	ExitBadDev
	ExitNoDev
	ExitSignal
)

// AttributeRow is one rendered attribute line, ready for the inspector's -A
// output: raw decode plus the derived state and the chosen display name.
type AttributeRow struct {
	ID          byte
	DisplayName string
	Current     byte
	Worst       byte
	Threshold   byte
	RawFormat   ata.AttributeFormat
	RawValue    [6]byte
	State       ata.AttributeState
}

// Report is the inspector's assembled view of one device at one point in
// time. Its fields mirror the CLI flags from spec.md section 6: -H health,
// -c capabilities, -A attributes, -l {error,selftest,...} logs.
type Report struct {
	Pathname   string
	DeviceType string
	Timestamp  time.Time

	Health        ata.HealthStatus
	HealthErr     error
	Identify      *ata.IdentifyData
	Attributes    []AttributeRow
	SelfTestLog   *ata.SelfTestLog
	ErrorLog      *ata.ErrorLog
	SelectiveLog  *ata.SelectiveSelfTestLog
	SCTStatus     *ata.SCTStatus
	TempHistory   *ata.TemperatureHistory

	SCSIInquiry       string
	SCSIInformational *scsi.InformationalExceptions
	SCSISelfTestLog   []scsi.SelfTestResult
	SCSIStartStop     *scsi.StartStopCounter

	Bits ExitBit
}

// NewReport starts a report for pathname at the current moment; callers
// fill in the sections they were able to read and accumulate Bits as they
// go via AddBit.
func NewReport(pathname, deviceType string, now time.Time) *Report {
	return &Report{Pathname: pathname, DeviceType: deviceType, Timestamp: now}
}

// AddBit ORs bit into the report's exit status.
func (r *Report) AddBit(bit ExitBit) {
	r.Bits |= bit
}

// ExitCode renders the accumulated bits as the inspector's process exit
// code: 0 when nothing fired, otherwise the bitmask itself.
func (r *Report) ExitCode() int {
	return int(r.Bits)
}

// BuildAttributeRows pairs a decoded attribute table against its threshold
// table and override table, producing one AttributeRow per non-empty slot.
func BuildAttributeRows(attrs ata.AttributeTable, thresholds ata.ThresholdTable, overrides *ata.AttributeOverrideTable) []AttributeRow {
	thrByID := make(map[byte]byte, 30)
	for _, t := range thresholds.Entries {
		if t.ID != 0 {
			thrByID[t.ID] = t.Threshold
		}
	}

	rows := make([]AttributeRow, 0, 30)
	for _, a := range attrs.Entries {
		if a.ID == 0 {
			continue
		}
		threshold, hasThreshold := thrByID[a.ID]
		state := ata.DeriveAttributeState(a.ID, a.Current, a.Worst, threshold, ata.AttrFlag(a.Flags), hasThreshold, false)

		row := AttributeRow{
			ID:        a.ID,
			Current:   a.Current,
			Worst:     a.Worst,
			Threshold: threshold,
			RawValue:  a.Raw,
			State:     state,
		}
		if overrides != nil {
			if o, ok := overrides.Lookup(a.ID); ok {
				row.DisplayName = o.DisplayName
				row.RawFormat = o.Format
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// EvaluateAttributeBits sets FailAttr when any row is failed_now or
// failed_past (spec.md section 6's -A exit bit).
func EvaluateAttributeBits(r *Report) {
	for _, row := range r.Attributes {
		if row.State == ata.StateFailedNow || row.State == ata.StateFailedPast {
			r.AddBit(FailAttr)
			return
		}
	}
}
