// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiry(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		req := Inquiry(false, 0, 36)
		assert.Equal(t, opInquiry, req.CDB[0])
		assert.Equal(t, byte(0), req.CDB[1])
		assert.Len(t, req.Buffer, 36)
		assert.Equal(t, DirFromDevice, req.Direction)
	})

	t.Run("VPD", func(t *testing.T) {
		req := Inquiry(true, 0x80, 64)
		assert.Equal(t, byte(0x01), req.CDB[1])
		assert.Equal(t, byte(0x80), req.CDB[2])
		assert.Len(t, req.Buffer, 64)
	})
}

func TestLogSense(t *testing.T) {
	req := LogSense(InformationalExceptionsLogPage, 64)
	assert.Equal(t, opLogSense, req.CDB[0])
	assert.Equal(t, byte(0x40|InformationalExceptionsLogPage), req.CDB[2])
	assert.Len(t, req.Buffer, 64)
}

func TestModeSense(t *testing.T) {
	t.Run("6Byte", func(t *testing.T) {
		req := ModeSense6(ExceptionReportingModePage, 24)
		assert.Equal(t, opModeSense6, req.CDB[0])
		assert.Equal(t, ExceptionReportingModePage, req.CDB[2])
	})

	t.Run("10Byte", func(t *testing.T) {
		req := ModeSense10(ExceptionReportingModePage, 255)
		assert.Equal(t, opModeSense10, req.CDB[0])
	})
}

func TestModeSelect(t *testing.T) {
	t.Run("TooShortIsRejected", func(t *testing.T) {
		_, err := ModeSelect([]byte{1, 2}, false)
		require.Error(t, err)
	})

	t.Run("6ByteClearsHeaderAndPSBit", func(t *testing.T) {
		senseResp := []byte{0xAA, 0, 0, 0, 0x80, 0x10}
		req, err := ModeSelect(senseResp, false)
		require.NoError(t, err)
		assert.Equal(t, opModeSelect6, req.CDB[0])
		assert.Equal(t, byte(0), req.Buffer[0])
		assert.Equal(t, byte(0x00), req.Buffer[4]&0x80)
	})

	t.Run("10ByteClearsTwoHeaderBytes", func(t *testing.T) {
		senseResp := make([]byte, 12)
		senseResp[0], senseResp[1] = 0xAA, 0xBB
		senseResp[8] = 0x80
		req, err := ModeSelect(senseResp, true)
		require.NoError(t, err)
		assert.Equal(t, opModeSelect10, req.CDB[0])
		assert.Equal(t, byte(0), req.Buffer[0])
		assert.Equal(t, byte(0), req.Buffer[1])
		assert.Equal(t, byte(0), req.Buffer[8]&0x80)
	})
}

func TestRequestSense(t *testing.T) {
	req := RequestSense(18)
	assert.Equal(t, opRequestSense, req.CDB[0])
	assert.Len(t, req.Buffer, 18)
}

func TestTestUnitReady(t *testing.T) {
	req := TestUnitReady()
	assert.Equal(t, DirNone, req.Direction)
	assert.Len(t, req.CDB, 6)
}

func TestSendDiagnostic(t *testing.T) {
	req := SendDiagnostic(SendDiagShortSelfTest)
	assert.Equal(t, opSendDiagnostic, req.CDB[0])
	assert.Equal(t, byte(SendDiagShortSelfTest)<<5, req.CDB[1])
}
