// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/device"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// fakeAtaHandle replays a fixed script of AtaPassThrough responses in call
// order, mirroring the ordering pollATA issues them in (status check, read
// values, read thresholds, self-test log, error log).
type fakeAtaHandle struct {
	pathname string
	script   []func(cmd *ata.Command) (ata.Result, error)
	idx      int
	calls    int
}

func (f *fakeAtaHandle) Pathname() string           { return f.pathname }
func (f *fakeAtaHandle) EffectiveType() string       { return "ata" }
func (f *fakeAtaHandle) Capability() device.Capability { return device.CapATA }
func (f *fakeAtaHandle) Open() error                 { return nil }
func (f *fakeAtaHandle) Close() error                { return nil }
func (f *fakeAtaHandle) IsOpen() bool                { return true }
func (f *fakeAtaHandle) LastError() error            { return nil }

func (f *fakeAtaHandle) AtaPassThrough(cmd *ata.Command) (ata.Result, error) {
	f.calls++
	if f.idx >= len(f.script) {
		return ata.Result{}, nil
	}
	fn := f.script[f.idx]
	f.idx++
	return fn(cmd)
}

type fakeScsiHandle struct {
	pathname string
	script   []func(req *scsi.Request) error
	idx      int
}

func (f *fakeScsiHandle) Pathname() string           { return f.pathname }
func (f *fakeScsiHandle) EffectiveType() string       { return "scsi" }
func (f *fakeScsiHandle) Capability() device.Capability { return device.CapSCSI }
func (f *fakeScsiHandle) Open() error                 { return nil }
func (f *fakeScsiHandle) Close() error                { return nil }
func (f *fakeScsiHandle) IsOpen() bool                { return true }
func (f *fakeScsiHandle) LastError() error            { return nil }

func (f *fakeScsiHandle) ScsiPassThrough(req *scsi.Request) error {
	if f.idx >= len(f.script) {
		return nil
	}
	fn := f.script[f.idx]
	f.idx++
	return fn(req)
}

func withValidChecksum(page []byte) []byte {
	var sum byte
	for _, b := range page[:511] {
		sum += b
	}
	page[511] = -sum
	return page
}

func statusCheckResult(healthy bool) ata.Result {
	var r ata.Result
	if healthy {
		r.Output.LBAMid = ata.Reg(0x4F)
		r.Output.LBAHigh = ata.Reg(0xC2)
	} else {
		r.Output.LBAMid = ata.Reg(0xF4)
		r.Output.LBAHigh = ata.Reg(0x2C)
	}
	return r
}

func attributeTablePage(entries ...ata.Attribute) []byte {
	page := make([]byte, 512)
	for i, a := range entries {
		off := 2 + i*12
		page[off] = a.ID
		ata.PutLE16(page[off+1:off+3], a.Flags)
		page[off+3] = a.Current
		page[off+4] = a.Worst
		copy(page[off+5:off+11], a.Raw[:])
	}
	return withValidChecksum(page)
}

func thresholdTablePage(entries ...struct {
	ID        byte
	Threshold byte
}) []byte {
	page := make([]byte, 512)
	for i, e := range entries {
		off := 2 + i*12
		page[off] = e.ID
		page[off+1] = e.Threshold
	}
	return withValidChecksum(page)
}

func selfTestLogPage(count int, lastHour uint16) []byte {
	page := make([]byte, 512)
	page[508] = byte(count)
	for i := 0; i < count; i++ {
		off := 2 + i*12
		page[off+1] = byte(ata.SelfTestUnknownFailure) << 4
		ata.PutLE16(page[off+2:off+4], lastHour)
	}
	return withValidChecksum(page)
}

func errorLogPage(errorCount uint16) []byte {
	page := make([]byte, 512)
	ata.PutLE16(page[452:454], errorCount)
	return withValidChecksum(page)
}

func newTestState(t *testing.T, cfg Config) *DeviceState {
	t.Helper()
	state, err := NewDeviceState("/dev/sda", cfg)
	require.NoError(t, err)
	return state
}

func happyPathScript(attrs, thresholds, selfTest, errLog []byte) []func(cmd *ata.Command) (ata.Result, error) {
	return []func(cmd *ata.Command) (ata.Result, error){
		func(cmd *ata.Command) (ata.Result, error) { return statusCheckResult(true), nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: attrs}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: thresholds}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: selfTest}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: errLog}, nil },
	}
}

func TestPollSleepFloorSkipsCycle(t *testing.T) {
	state := newTestState(t, Config{SleepFloor: SleepStandby})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))

	h := &fakeAtaHandle{pathname: "/dev/sda", script: []func(cmd *ata.Command) (ata.Result, error){
		func(cmd *ata.Command) (ata.Result, error) {
			var r ata.Result
			r.Output.SectorCount = ata.Reg(0x00) // standby
			return r, nil
		},
		func(cmd *ata.Command) (ata.Result, error) {
			var r ata.Result
			r.Output.SectorCount = ata.Reg(0x00)
			return r, nil
		},
	}}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	assert.Equal(t, 1, state.skippedCycles)
	assert.Equal(t, 2, h.calls, "checkSleepFloor re-probes once after the grace sleep")
}

func TestPollATAHappyPathRunsAllSteps(t *testing.T) {
	attrs := attributeTablePage(ata.Attribute{ID: 5, Current: 100, Worst: 100})
	thresholds := thresholdTablePage(struct {
		ID        byte
		Threshold byte
	}{ID: 5, Threshold: 50})
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	assert.Equal(t, 5, h.calls)
	assert.Empty(t, n.events)
	assert.True(t, state.RetainSnapshot)
	assert.Equal(t, byte(5), state.LastAttributes.Entries[0].ID)
}

func TestPollATAStatusCheckFailureStopsCycle(t *testing.T) {
	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: []func(cmd *ata.Command) (ata.Result, error){
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{}, assert.AnError },
	}}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryFailedHealthCheck, n.events[0].Category)
	assert.Equal(t, 1, h.calls, "a failed status check must not fall through to attribute reads")
}

func TestPollATAHealthFailingDispatchesButContinues(t *testing.T) {
	attrs := attributeTablePage()
	thresholds := thresholdTablePage()
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: []func(cmd *ata.Command) (ata.Result, error){
		func(cmd *ata.Command) (ata.Result, error) { return statusCheckResult(false), nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: attrs}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: thresholds}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: selfTest}, nil },
		func(cmd *ata.Command) (ata.Result, error) { return ata.Result{Buffer: errLog}, nil },
	}}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryHealth, n.events[0].Category)
	assert.Equal(t, 5, h.calls, "a failing health status still runs the remaining steps")
}

func TestPollATAAttributeFailureDispatchesUsage(t *testing.T) {
	attrs := attributeTablePage(ata.Attribute{ID: 5, Current: 10, Worst: 10})
	thresholds := thresholdTablePage(struct {
		ID        byte
		Threshold byte
	}{ID: 5, Threshold: 50})
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryUsage, n.events[0].Category)
}

func TestPollATASectorCountDispatch(t *testing.T) {
	attrs := attributeTablePage(ata.Attribute{ID: ata.DefaultCurrentPendingSectorID, Raw: [6]byte{3, 0, 0, 0, 0, 0}})
	thresholds := thresholdTablePage()
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryCurrentPendingSector, n.events[0].Category)
}

func TestPollATATemperatureCriticalDispatch(t *testing.T) {
	attrs := attributeTablePage(ata.Attribute{ID: ata.DefaultTemperatureID, Raw: [6]byte{60, 0, 0, 0, 0, 0}})
	thresholds := thresholdTablePage()
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever, TempCritical: 55})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryTemperature, n.events[0].Category)
	assert.Equal(t, 60, state.Temperature.Current)
}

func TestPollATASelfTestLogDispatch(t *testing.T) {
	attrs := attributeTablePage()
	thresholds := thresholdTablePage()
	selfTest := selfTestLogPage(1, 42)
	errLog := errorLogPage(0)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategorySelfTest, n.events[0].Category)
	assert.Equal(t, 1, state.SelfTestErrorCount)
	assert.Equal(t, uint16(42), state.LastSelfTestHour)
}

func TestPollATAErrorLogDispatch(t *testing.T) {
	attrs := attributeTablePage()
	thresholds := thresholdTablePage()
	selfTest := selfTestLogPage(0, 0)
	errLog := errorLogPage(3)

	state := newTestState(t, Config{SleepFloor: SleepNever})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeAtaHandle{pathname: "/dev/sda", script: happyPathScript(attrs, thresholds, selfTest, errLog)}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 1)
	assert.Equal(t, CategoryErrorCount, n.events[0].Category)
	assert.Equal(t, 3, state.ATAErrorLogCount)
}

func TestPollSCSIHealthAndSelfTest(t *testing.T) {
	iePage := make([]byte, 12)
	iePage[2], iePage[3] = 0, 8 // page length 8: temperature present
	iePage[8] = 0x5d           // ASC: predictive failure
	iePage[9] = 0x10
	iePage[10] = 45

	selfTestPage := make([]byte, 24)
	selfTestPage[off(0)+4] = byte(2) << 5 // code bits, results nibble 0 = pass
	selfTestPage[off(0)+4] |= 0x2         // non-zero results -> a failure

	state := newTestState(t, Config{})
	n := &recordingNotifier{}
	m := NewMonitor(testLogger(t), NewDispatcher(testLogger(t), CadenceDaily, n))
	h := &fakeScsiHandle{pathname: "/dev/sg0", script: []func(req *scsi.Request) error{
		func(req *scsi.Request) error { copy(req.Buffer, iePage); return nil },
		func(req *scsi.Request) error { copy(req.Buffer, selfTestPage); return nil },
	}}

	err := m.Poll(context.Background(), h, state)
	require.NoError(t, err)
	require.Len(t, n.events, 2)
	assert.Equal(t, CategoryHealth, n.events[0].Category)
	assert.Equal(t, CategorySelfTest, n.events[1].Category)
	assert.Equal(t, 1, state.SCSISelfTestFailures)
}

// off mirrors DecodeSelfTestResultsLog's 4-byte header + 20-byte entry
// layout so the fixture above reads naturally as "entry 0's offset".
func off(entry int) int { return 4 + entry*20 }
