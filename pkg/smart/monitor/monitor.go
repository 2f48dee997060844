// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/device"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// SMART log addresses used by ReadLog (ATA8-ACS GPL/SMART log directory).
const (
	logAddrSummaryError  byte = 0x01
	logAddrSelfTest      byte = 0x06
	logAddrExtSelfTestLo byte = 0x07
)

// Monitor drives one poll cycle across all registered devices. It holds no
// per-device mutable state itself — that lives in DeviceState — so a
// Monitor value is safe to keep across reloads.
type Monitor struct {
	log        logger.Logger
	dispatcher *Dispatcher
	clock      func() time.Time
}

// NewMonitor builds a Monitor that dispatches notifications through d. clock
// defaults to time.Now; tests may override it.
func NewMonitor(log logger.Logger, d *Dispatcher) *Monitor {
	return &Monitor{log: log, dispatcher: d, clock: time.Now}
}

func (m *Monitor) now() time.Time {
	if m.clock != nil {
		return m.clock()
	}
	return time.Now()
}

// Poll runs the eight ordered steps of spec.md section 4.7 against one
// device. handle is opened fresh by the caller and closed by the caller;
// Poll only reads and writes through it. A step failure is logged and
// notified, and later steps that would be meaningless without the data the
// failed step would have produced are skipped — the ordering guarantee from
// spec.md section 5.
func (m *Monitor) Poll(ctx context.Context, handle device.Handle, state *DeviceState) error {
	now := m.now()

	if skip, err := m.checkSleepFloor(handle, state); err != nil {
		return err
	} else if skip {
		state.RecordSkippedCycle()
		return nil
	}
	if state.skippedCycles > 0 {
		m.log.Info("device resumed polling after sleep-floor skip", "pathname", handle.Pathname(), "skipped", state.skippedCycles)
		state.ResetSkippedCycles()
	}

	ataHandle, isATA := handle.(device.AtaCapable)
	if !isATA {
		scsiHandle, isSCSI := handle.(device.ScsiCapable)
		if !isSCSI {
			return errors.New(errors.SmartUnsupported, "handle implements neither ATA nor SCSI pass-through")
		}
		return m.pollSCSI(ctx, scsiHandle, state, now)
	}
	return m.pollATA(ctx, ataHandle, state, now)
}

// checkSleepFloor implements step 1: optionally skip work if the drive is
// below the configured power-mode floor, rechecking after a 5-second grace
// to avoid waking the drive purely to ask it whether it is asleep.
func (m *Monitor) checkSleepFloor(handle device.Handle, state *DeviceState) (bool, error) {
	if state.Config.SleepFloor == SleepNever {
		return false, nil
	}
	ataHandle, ok := handle.(device.AtaCapable)
	if !ok {
		return false, nil // sleep-floor skip is an ATA (CHECK POWER MODE) concept
	}

	asleep, err := checkPowerModeBelow(ataHandle, state.Config.SleepFloor)
	if err != nil {
		return false, nil // a failed power-mode probe does not block the cycle
	}
	if !asleep {
		return false, nil
	}

	time.Sleep(5 * time.Second)
	asleep, err = checkPowerModeBelow(ataHandle, state.Config.SleepFloor)
	if err != nil {
		return false, nil
	}
	return asleep, nil
}

func checkPowerModeBelow(h device.AtaCapable, floor SleepFloor) (bool, error) {
	cmd, err := ata.BuildCommand(ata.CheckPowerMode, 0, nil)
	if err != nil {
		return false, err
	}
	res, err := h.AtaPassThrough(&cmd)
	if err != nil {
		return false, err
	}
	// Sector-count register echoes the power mode: 0x00 standby,
	// 0x80/0x81 idle, 0xFF active or idle.
	mode := res.Output.SectorCount.Value
	switch floor {
	case SleepStandby:
		return mode == 0x00, nil
	case SleepIdle:
		return mode == 0x00 || mode == 0x80 || mode == 0x81, nil
	case SleepSleep:
		return mode == 0x00, nil
	default:
		return false, nil
	}
}

// pollATA runs steps 2-8 against an ATA (or tunnelled-ATA) handle.
func (m *Monitor) pollATA(ctx context.Context, h device.AtaCapable, state *DeviceState, now time.Time) error {
	// Step 2: status_check.
	health, err := m.ataStatusCheck(h)
	if err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedHealthCheck,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
		return nil
	}
	if health == ata.HealthFailing {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryHealth,
			Message: "SMART overall-health self-assessment returned FAILING", DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}

	// Step 3: attribute/threshold table diff.
	attrs, thresholds, err := m.readAttributes(h, state.Config.ChecksumPolicy)
	if err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedReadSmartData,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
		return nil
	}
	m.diffAttributes(ctx, state, attrs, thresholds, now)

	// Step 4: current-pending / offline-uncorrectable sectors.
	m.checkSectorCounts(ctx, state, attrs, now)

	// Step 5: temperature.
	m.checkTemperature(ctx, state, attrs, now)

	state.LastAttributes = attrs
	state.RetainSnapshot = true

	// Step 6: self-test log.
	if err := m.checkSelfTestLog(ctx, h, state, now); err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedReadSmartSelfTestLog,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}

	// Step 7: ATA error log count.
	if err := m.checkErrorLog(ctx, h, state, now); err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedReadSmartErrorLog,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}

	// Step 8: scheduled self-tests, one per cycle, priority order L,S,C,O.
	m.runScheduledTest(h, state, now)

	return nil
}

func (m *Monitor) ataStatusCheck(h device.AtaCapable) (ata.HealthStatus, error) {
	cmd, err := ata.BuildCommand(ata.StatusCheck, 0, nil)
	if err != nil {
		return ata.HealthProtocolError, err
	}
	res, err := h.AtaPassThrough(&cmd)
	if err != nil {
		return ata.HealthProtocolError, err
	}
	return ata.DecodeHealthStatus(res.Output.LBAMid.Value, res.Output.LBAHigh.Value)
}

func (m *Monitor) readAttributes(h device.AtaCapable, policy ata.ChecksumPolicy) (ata.AttributeTable, ata.ThresholdTable, error) {
	valCmd, err := ata.BuildCommand(ata.ReadValues, 0, nil)
	if err != nil {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}
	valRes, err := h.AtaPassThrough(&valCmd)
	if err != nil {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}
	if err := ata.VerifyChecksum(valRes.Buffer, policy, "attribute table"); err != nil && policy == ata.ChecksumExit {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}

	thrCmd, err := ata.BuildCommand(ata.ReadThresholds, 0, nil)
	if err != nil {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}
	thrRes, err := h.AtaPassThrough(&thrCmd)
	if err != nil {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}
	if err := ata.VerifyChecksum(thrRes.Buffer, policy, "threshold table"); err != nil && policy == ata.ChecksumExit {
		return ata.AttributeTable{}, ata.ThresholdTable{}, err
	}

	return ata.DecodeAttributeTable(valRes.Buffer), ata.DecodeThresholdTable(thrRes.Buffer), nil
}

// diffAttributes implements step 3: for each attribute, derive its state and
// fire category Usage on a fresh transition into failed_now, unless masked
// by the per-attribute ignore bitset.
func (m *Monitor) diffAttributes(ctx context.Context, state *DeviceState, attrs ata.AttributeTable, thresholds ata.ThresholdTable, now time.Time) {
	thrByID := make(map[byte]byte, 30)
	for _, t := range thresholds.Entries {
		if t.ID != 0 {
			thrByID[t.ID] = t.Threshold
		}
	}
	prevByID := make(map[byte]ata.Attribute, 30)
	for _, a := range state.LastAttributes.Entries {
		if a.ID != 0 {
			prevByID[a.ID] = a
		}
	}

	for _, a := range attrs.Entries {
		if a.ID == 0 || state.AttrBits.IsIgnored(a.ID) {
			continue
		}
		threshold, hasThreshold := thrByID[a.ID]
		derived := ata.DeriveAttributeState(a.ID, a.Current, a.Worst, threshold, ata.AttrFlag(a.Flags), hasThreshold, false)

		prev, hadPrev := prevByID[a.ID]
		wasFailing := hadPrev && ata.DeriveAttributeState(prev.ID, prev.Current, prev.Worst, threshold, ata.AttrFlag(prev.Flags), hasThreshold, false) == ata.StateFailedNow

		if derived == ata.StateFailedNow && !wasFailing {
			m.dispatcher.Send(ctx, state, Event{
				Pathname: state.Pathname, Category: CategoryUsage,
				Message:    fmt.Sprintf("attribute %d failed its usage threshold", a.ID),
				DeviceType: "ata", Occurred: now,
			}, false)
		}
		if !hadPrev {
			continue
		}
		if a.Current != prev.Current || a.Worst != prev.Worst {
			m.log.Info("attribute value changed", "pathname", state.Pathname, "id", a.ID, "current", a.Current, "worst", a.Worst)
		}
		if state.AttrBits.IsRawChangeTracked(a.ID) && a.Raw != prev.Raw {
			m.log.Info("attribute raw value changed", "pathname", state.Pathname, "id", a.ID, "raw", a.Raw)
		}
	}
}

// checkSectorCounts implements step 4.
func (m *Monitor) checkSectorCounts(ctx context.Context, state *DeviceState, attrs ata.AttributeTable, now time.Time) {
	pendingID := state.Config.CurrentPendingID
	if pendingID == 0 {
		pendingID = ata.DefaultCurrentPendingSectorID
	}
	offlineID := state.Config.OfflineUncorrectableID
	if offlineID == 0 {
		offlineID = ata.DefaultOfflineUncorrectableID
	}

	prevByID := make(map[byte]ata.Attribute, 30)
	for _, a := range state.LastAttributes.Entries {
		if a.ID != 0 {
			prevByID[a.ID] = a
		}
	}

	for _, a := range attrs.Entries {
		var category Category
		switch a.ID {
		case pendingID:
			category = CategoryCurrentPendingSector
		case offlineID:
			category = CategoryOfflineUncorrectableSector
		default:
			continue
		}
		raw := rawValue48(a.Raw)
		if raw == 0 {
			continue
		}
		if ata.AttrFlag(a.Flags)&ata.AttrFlagIncreasing != 0 {
			prev, ok := prevByID[a.ID]
			if !ok || raw <= rawValue48(prev.Raw) {
				continue
			}
		}
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: category,
			Message:    fmt.Sprintf("attribute %d raw value is %d", a.ID, raw),
			DeviceType: "ata", Occurred: now,
		}, false)
	}
}

func rawValue48(raw [6]byte) uint64 {
	var v uint64
	for i := 5; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}
	return v
}

// checkTemperature implements step 5.
func (m *Monitor) checkTemperature(ctx context.Context, state *DeviceState, attrs ata.AttributeTable, now time.Time) {
	tempID := state.Config.TemperatureID
	if tempID == 0 {
		tempID = ata.DefaultTemperatureID
	}
	var raw [6]byte
	var found bool
	for _, a := range attrs.Entries {
		if a.ID == tempID {
			raw, found = a.Raw, true
			break
		}
	}
	if !found {
		return
	}
	format := state.Config.TemperatureFormat
	if format == "" {
		format = ata.FormatTempMinMax
	}
	current, err := ata.TemperatureFromAttribute(format, raw)
	if err != nil {
		return
	}

	t := &state.Temperature
	delta := current - t.Current
	if delta < 0 {
		delta = -delta
	}
	firstReading := t.Current == 0 && t.Min == 0 && t.Max == 0
	t.Current = current

	if firstReading {
		t.Min, t.Max = current, current
		grace := state.Config.ColdStartGraceTicks
		if grace <= 0 {
			grace = ColdStartGraceTicksFor(0)
		}
		t.MinIncreaseGrace = grace
	} else {
		if current > t.Max {
			t.Max = current
		}
		if current < t.Min {
			t.Min = current
		} else if current > t.Min && t.MinIncreaseGrace > 0 {
			t.Min = current
			t.MinIncreaseGrace--
		}
	}

	if state.Config.TempCritical > 0 && current >= state.Config.TempCritical {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: CategoryTemperature,
			Message:    fmt.Sprintf("temperature %d reached critical ceiling %d", current, state.Config.TempCritical),
			DeviceType: "ata", Occurred: now,
		}, false)
		return
	}
	if state.Config.TempInfo > 0 && current >= state.Config.TempInfo {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: CategoryTemperature,
			Message:    fmt.Sprintf("temperature %d reached informational ceiling %d", current, state.Config.TempInfo),
			DeviceType: "ata", Occurred: now,
		}, false)
		return
	}
	if state.Config.TempDelta > 0 && !firstReading && delta >= state.Config.TempDelta {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: CategoryTemperature,
			Message:    fmt.Sprintf("temperature changed by %d (now %d)", delta, current),
			DeviceType: "ata", Occurred: now,
		}, false)
	}
}

// checkSelfTestLog implements step 6.
func (m *Monitor) checkSelfTestLog(ctx context.Context, h device.AtaCapable, state *DeviceState, now time.Time) error {
	cmd, err := ata.BuildCommand(ata.ReadLog, logAddrSelfTest, nil)
	if err != nil {
		return err
	}
	res, err := h.AtaPassThrough(&cmd)
	if err != nil {
		return err
	}
	if err := ata.VerifyChecksum(res.Buffer, state.Config.ChecksumPolicy, "self-test log"); err != nil && state.Config.ChecksumPolicy == ata.ChecksumExit {
		return err
	}
	log := ata.DecodeSelfTestLog(res.Buffer)
	count, lastHour := log.ErrorCountAndHour()

	fire := count > state.SelfTestErrorCount || (count == state.SelfTestErrorCount && lastHour > state.LastSelfTestHour)
	if fire {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: CategorySelfTest,
			Message:    fmt.Sprintf("self-test log shows %d error(s), most recent at hour %d", count, lastHour),
			DeviceType: "ata", Occurred: now,
		}, false)
	}
	state.SelfTestErrorCount = count
	state.LastSelfTestHour = lastHour
	return nil
}

// checkErrorLog implements step 7.
func (m *Monitor) checkErrorLog(ctx context.Context, h device.AtaCapable, state *DeviceState, now time.Time) error {
	cmd, err := ata.BuildCommand(ata.ReadLog, logAddrSummaryError, nil)
	if err != nil {
		return err
	}
	res, err := h.AtaPassThrough(&cmd)
	if err != nil {
		return err
	}
	if err := ata.VerifyChecksum(res.Buffer, state.Config.ChecksumPolicy, "error log"); err != nil && state.Config.ChecksumPolicy == ata.ChecksumExit {
		return err
	}
	log := ata.DecodeErrorLog(res.Buffer)
	if int(log.ErrorCount) > state.ATAErrorLogCount {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: state.Pathname, Category: CategoryErrorCount,
			Message:    fmt.Sprintf("ATA error count increased to %d", log.ErrorCount),
			DeviceType: "ata", Occurred: now,
		}, false)
	}
	state.ATAErrorLogCount = int(log.ErrorCount)
	return nil
}

// runScheduledTest implements step 8: at most one test started per cycle.
func (m *Monitor) runScheduledTest(h device.AtaCapable, state *DeviceState, now time.Time) {
	testType, ok := PickScheduledTest(state, now)
	if !ok {
		return
	}
	sub := selfTestSubCommandFor(testType)
	cmd, err := ata.BuildCommand(sub, 0, nil)
	if err != nil {
		state.NotCapable[testType] = true
		return
	}
	if _, err := h.AtaPassThrough(&cmd); err != nil {
		m.log.Error("failed to start scheduled self-test", "pathname", state.Pathname, "type", testType, "err", err)
		return
	}
	RecordScheduledRun(state, testType, now)
}

func selfTestSubCommandFor(t TestType) ata.SubCommand {
	switch t {
	case TestLong, TestShort, TestConveyance:
		return ata.ImmediateOffline
	default:
		return ata.ImmediateOffline
	}
}

// pollSCSI runs the SCSI-capable analogue of the ATA steps: Informational
// Exceptions (health + temperature) and the self-test results log. A plain
// SCSI device has no attribute table, pending/uncorrectable sector
// attributes, or ATA error log, so those steps are not applicable.
func (m *Monitor) pollSCSI(ctx context.Context, h device.ScsiCapable, state *DeviceState, now time.Time) error {
	req := scsi.LogSense(scsi.InformationalExceptionsLogPage, 252)
	if err := h.ScsiPassThrough(&req); err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedHealthCheck,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
		return nil
	}
	ie := scsi.DecodeIELogPage(req.Buffer)
	if ie.ASC != 0 || ie.ASCQ != 0 {
		class, known := scsi.FailureClass(ie.ASCQ)
		if !known {
			class = "unrecognized failure class"
		}
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryHealth,
			Message:    fmt.Sprintf("informational exception asc=%#02x ascq=%#02x: %s", ie.ASC, ie.ASCQ, class),
			DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}
	if ie.HasTemperature && state.Config.TempCritical > 0 && ie.CurrentTemp >= state.Config.TempCritical {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryTemperature,
			Message:    fmt.Sprintf("temperature %d reached critical ceiling %d", ie.CurrentTemp, state.Config.TempCritical),
			DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}

	req2 := scsi.LogSense(scsi.SelfTestResultsLogPage, 512)
	if err := h.ScsiPassThrough(&req2); err != nil {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategoryFailedReadSmartSelfTestLog,
			Message: err.Error(), DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
		return nil
	}
	results := scsi.DecodeSelfTestResultsLog(req2.Buffer)
	failures := 0
	for _, r := range results {
		if r.Results != 0 {
			failures++
		}
	}
	if failures > state.SCSISelfTestFailures {
		m.dispatcher.Send(ctx, state, Event{
			Pathname: h.Pathname(), Category: CategorySelfTest,
			Message:    fmt.Sprintf("self-test results log shows %d failure(s)", failures),
			DeviceType: h.EffectiveType(), Occurred: now,
		}, false)
	}
	state.SCSISelfTestFailures = failures
	return nil
}
