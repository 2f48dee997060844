// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectiveSelfTestLogRoundTrips(t *testing.T) {
	l := SelectiveSelfTestLog{
		Revision:    1,
		CurrentSpan: 2,
		CurrentLBA:  12345,
		Flags:       SelectivePending | SelectiveDoScanAfter,
		PendingMinutes: 30,
	}
	l.Spans[0] = Span{Start: 0, End: 999}
	l.Spans[1] = Span{Start: 1000, End: 1999}

	page := EncodeSelectiveSelfTestLog(l)
	assert.Equal(t, byte(0), PageChecksum(page))

	decoded := DecodeSelectiveSelfTestLog(page)
	assert.Equal(t, l.Revision, decoded.Revision)
	assert.Equal(t, l.CurrentSpan, decoded.CurrentSpan)
	assert.Equal(t, l.CurrentLBA, decoded.CurrentLBA)
	assert.Equal(t, l.Flags, decoded.Flags)
	assert.Equal(t, l.PendingMinutes, decoded.PendingMinutes)
	assert.Equal(t, l.Spans[0], decoded.Spans[0])
	assert.Equal(t, l.Spans[1], decoded.Spans[1])
}

func TestWriteSelectiveSelfTest(t *testing.T) {
	t.Run("ZeroSizeDiskIsRejected", func(t *testing.T) {
		_, _, err := WriteSelectiveSelfTest(SelectiveSelfTestLog{}, 0, 0, nil)
		require.Error(t, err)
	})

	t.Run("RefusesWhileTestInProgress", func(t *testing.T) {
		_, _, err := WriteSelectiveSelfTest(SelectiveSelfTestLog{}, 1000, byte(SelfTestInProgress), nil)
		require.Error(t, err)
	})

	t.Run("SlotOutOfRangeIsRejected", func(t *testing.T) {
		reqs := []SpanRequest{{Slot: 5, Mode: SpanExplicit, Explicit: Span{Start: 0, End: 10}}}
		_, _, err := WriteSelectiveSelfTest(SelectiveSelfTestLog{}, 1000, 0, reqs)
		require.Error(t, err)
	})

	t.Run("ExplicitSpanWithStopMaxResolvesToDiskEnd", func(t *testing.T) {
		reqs := []SpanRequest{{Slot: 0, Mode: SpanExplicit, Explicit: Span{Start: 0, End: StopMax}}}
		next, page, err := WriteSelectiveSelfTest(SelectiveSelfTestLog{}, 1000, 0, reqs)
		require.NoError(t, err)
		assert.Equal(t, uint64(999), next.Spans[0].End)
		assert.Equal(t, byte(0), PageChecksum(page))
	})

	t.Run("ExplicitSpanBeyondDiskIsRejected", func(t *testing.T) {
		reqs := []SpanRequest{{Slot: 0, Mode: SpanExplicit, Explicit: Span{Start: 0, End: 1000}}}
		_, _, err := WriteSelectiveSelfTest(SelectiveSelfTestLog{}, 1000, 0, reqs)
		require.Error(t, err)
	})

	t.Run("RedoReusesPreviousSpan", func(t *testing.T) {
		prev := SelectiveSelfTestLog{}
		prev.Spans[0] = Span{Start: 50, End: 99}
		reqs := []SpanRequest{{Slot: 0, Mode: SpanRedo}}
		next, _, err := WriteSelectiveSelfTest(prev, 1000, 0, reqs)
		require.NoError(t, err)
		assert.Equal(t, prev.Spans[0], next.Spans[0])
	})

	t.Run("NextAdvancesPastPreviousSpan", func(t *testing.T) {
		prev := SelectiveSelfTestLog{}
		prev.Spans[0] = Span{Start: 0, End: 99}
		reqs := []SpanRequest{{Slot: 0, Mode: SpanNext}}
		next, _, err := WriteSelectiveSelfTest(prev, 1000, 0, reqs)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), next.Spans[0].Start)
		assert.Equal(t, uint64(199), next.Spans[0].End)
	})

	t.Run("NextWrapsAtEndOfDisk", func(t *testing.T) {
		prev := SelectiveSelfTestLog{}
		prev.Spans[0] = Span{Start: 950, End: 999}
		reqs := []SpanRequest{{Slot: 0, Mode: SpanNext}}
		next, _, err := WriteSelectiveSelfTest(prev, 1000, 0, reqs)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), next.Spans[0].Start)
	})

	t.Run("ContinueResolvesToRedoWhenExecStatusIsResumeOrAborted", func(t *testing.T) {
		prev := SelectiveSelfTestLog{}
		prev.Spans[0] = Span{Start: 10, End: 20}
		reqs := []SpanRequest{{Slot: 0, Mode: SpanContinue}}

		next, _, err := WriteSelectiveSelfTest(prev, 1000, 1, reqs)
		require.NoError(t, err)
		assert.Equal(t, prev.Spans[0], next.Spans[0])
	})

	t.Run("ContinueResolvesToNextOtherwise", func(t *testing.T) {
		prev := SelectiveSelfTestLog{}
		prev.Spans[0] = Span{Start: 0, End: 9}
		reqs := []SpanRequest{{Slot: 0, Mode: SpanContinue}}

		next, _, err := WriteSelectiveSelfTest(prev, 1000, 0, reqs)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), next.Spans[0].Start)
	})

	t.Run("ClearsPendingAndActiveFlagsAndResetsCursor", func(t *testing.T) {
		prev := SelectiveSelfTestLog{Flags: SelectivePending | SelectiveActive, CurrentLBA: 500}
		next, _, err := WriteSelectiveSelfTest(prev, 1000, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, SelectiveFlags(0), next.Flags&(SelectivePending|SelectiveActive))
		assert.Equal(t, uint64(0), next.CurrentLBA)
	})
}
