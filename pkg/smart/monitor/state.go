// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package monitor implements the daemon's per-device state machine: the
// ordered polling cycle, self-test scheduling, and notification dispatch.
package monitor

import (
	"regexp"
	"time"

	"github.com/stratastor/smartmond/pkg/smart/ata"
)

// coldStartGraceWindow is the literal "first 30 minutes" from spec.md
// section 4.7 step 5.
const coldStartGraceWindow = 30 * time.Minute

// ColdStartGraceTicksFor converts the 30-minute grace window into a poll
// cycle count for the given interval; at least one tick regardless of how
// long the interval is.
func ColdStartGraceTicksFor(interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	ticks := int(coldStartGraceWindow / interval)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// Category is one of the 13 notification categories from spec.md section 3.
type Category int

const (
	CategoryEmailTest Category = iota
	CategoryHealth
	CategoryUsage
	CategorySelfTest
	CategoryErrorCount
	CategoryFailedHealthCheck
	CategoryFailedReadSmartData
	CategoryFailedReadSmartErrorLog
	CategoryFailedReadSmartSelfTestLog
	CategoryFailedOpenDevice
	CategoryCurrentPendingSector
	CategoryOfflineUncorrectableSector
	CategoryTemperature

	categoryCount
)

func (c Category) String() string {
	names := [...]string{
		"EmailTest", "Health", "Usage", "SelfTest", "ErrorCount",
		"FailedHealthCheck", "FailedReadSmartData", "FailedReadSmartErrorLog",
		"FailedReadSmartSelfTestLog", "FailedOpenDevice", "CurrentPendingSector",
		"OfflineUncorrectableSector", "Temperature",
	}
	if int(c) < 0 || int(c) >= len(names) {
		return "Unknown"
	}
	return names[c]
}

// SleepFloor is the user-selectable power-mode floor below which a poll
// cycle is skipped (section 4.7 step 1).
type SleepFloor string

const (
	SleepNever    SleepFloor = "never"
	SleepSleep    SleepFloor = "sleep"
	SleepStandby  SleepFloor = "standby"
	SleepIdle     SleepFloor = "idle"
)

// AttrMonitorBits is the per-device 256-bit x 4-category bitset controlling
// which attributes are tracked, ignored, raw-printed, and raw-change-
// tracked. A plain fixed-size byte array; no dynamic allocation hidden
// inside (design note, spec.md section 9).
type AttrMonitorBits struct {
	Tracked         [32]byte // 256 bits
	Ignored         [32]byte
	RawPrinted      [32]byte
	RawChangeTracked [32]byte
}

func setBit(bits *[32]byte, id byte, v bool) {
	if v {
		bits[id/8] |= 1 << (id % 8)
	} else {
		bits[id/8] &^= 1 << (id % 8)
	}
}

func getBit(bits *[32]byte, id byte) bool {
	return bits[id/8]&(1<<(id%8)) != 0
}

func (b *AttrMonitorBits) SetTracked(id byte, v bool)          { setBit(&b.Tracked, id, v) }
func (b *AttrMonitorBits) IsTracked(id byte) bool               { return getBit(&b.Tracked, id) }
func (b *AttrMonitorBits) SetIgnored(id byte, v bool)           { setBit(&b.Ignored, id, v) }
func (b *AttrMonitorBits) IsIgnored(id byte) bool               { return getBit(&b.Ignored, id) }
func (b *AttrMonitorBits) SetRawPrinted(id byte, v bool)        { setBit(&b.RawPrinted, id, v) }
func (b *AttrMonitorBits) IsRawPrinted(id byte) bool            { return getBit(&b.RawPrinted, id) }
func (b *AttrMonitorBits) SetRawChangeTracked(id byte, v bool)  { setBit(&b.RawChangeTracked, id, v) }
func (b *AttrMonitorBits) IsRawChangeTracked(id byte) bool      { return getBit(&b.RawChangeTracked, id) }

// NotificationRecord tracks delivery history for one (device, category)
// slot, per spec.md section 4.9.
type NotificationRecord struct {
	TimesSent      int
	FirstSentEpoch int64
	LastSentEpoch  int64
}

// TemperatureState tracks the running min/max and cold-start grace window
// from spec.md section 4.7 step 5.
type TemperatureState struct {
	Current          int
	Min              int
	Max              int
	MinIncreaseGrace int // ticks remaining during which Min may still increase
}

// Config is the subset of per-device configuration directives (from
// pkg/smart/config) that DeviceState needs to drive a poll cycle.
type Config struct {
	ChecksumPolicy        ata.ChecksumPolicy
	SleepFloor            SleepFloor
	TempDelta             int
	TempInfo              int
	TempCritical          int
	CurrentPendingID      byte
	OfflineUncorrectableID byte
	TemperatureID         byte
	TemperatureFormat     ata.AttributeFormat
	SchedulePattern       map[TestType]string

	// ColdStartGraceTicks is how many poll cycles after registration the
	// running temperature minimum may still increase (spec.md section 4.7
	// step 5's literal "first 30 minutes"), derived from the poll interval
	// by the registry that allocates this Config rather than hardcoded, so
	// it tracks whatever interval the daemon is actually configured with.
	ColdStartGraceTicks int
}

// DeviceState is the per-device monitor state owned by the daemon
// (spec.md section 3). Allocated when a device registers successfully;
// deallocated on daemon exit or reload.
type DeviceState struct {
	Pathname string
	Config   Config

	SelfTestErrorCount int
	LastSelfTestHour   uint16
	ATAErrorLogCount   int
	SCSISelfTestFailures int

	Temperature TemperatureState

	Notifications [categoryCount]NotificationRecord

	AttrBits AttrMonitorBits

	// Overrides holds this device's -v N,FORMAT[,NAME] directives, parsed at
	// registration time. Notification messages identify attributes by id
	// only (spec.md section 4.9 does not call for display names there); this
	// is carried for report/API surfaces that do render attribute names.
	Overrides *ata.AttributeOverrideTable

	ScheduleRegex map[TestType]*regexp.Regexp
	LastRunBucket map[TestType]int // hour-of-year bucket of the last scheduled run

	NotCapable map[TestType]bool

	// RetainSnapshot indicates whether attribute values from this cycle
	// must survive into the next one; freed otherwise (spec.md section 4.7).
	RetainSnapshot bool
	LastAttributes ata.AttributeTable

	skippedCycles int
}

// NewDeviceState allocates monitor state for a newly registered device and
// compiles its schedule patterns.
func NewDeviceState(pathname string, cfg Config) (*DeviceState, error) {
	s := &DeviceState{
		Pathname:      pathname,
		Config:        cfg,
		ScheduleRegex: make(map[TestType]*regexp.Regexp),
		LastRunBucket: make(map[TestType]int),
		NotCapable:    make(map[TestType]bool),
	}
	for t, pattern := range cfg.SchedulePattern {
		re, err := CompileSchedule(pattern)
		if err != nil {
			return nil, err
		}
		s.ScheduleRegex[t] = re
		s.LastRunBucket[t] = -1
	}
	return s, nil
}

// RecordSkippedCycle increments the skip counter; the daemon logs on state
// transitions only, not per cycle (spec.md section 4.7 step 1).
func (s *DeviceState) RecordSkippedCycle() int {
	s.skippedCycles++
	return s.skippedCycles
}

func (s *DeviceState) ResetSkippedCycles() {
	s.skippedCycles = 0
}
