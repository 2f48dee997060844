// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

func TestParseLine(t *testing.T) {
	t.Run("PlainDevice", func(t *testing.T) {
		dl, err := ParseLine("/dev/sda -a -d ata")
		require.NoError(t, err)
		assert.Equal(t, "/dev/sda", dl.Pathname)
		assert.False(t, dl.IsScan)
		assert.Equal(t, []string{"-a", "-d", "ata"}, dl.Tokens)
	})

	t.Run("DeviceScanDirective", func(t *testing.T) {
		dl, err := ParseLine("DEVICESCAN -a")
		require.NoError(t, err)
		assert.True(t, dl.IsScan)
	})

	t.Run("EmptyLineIsRejected", func(t *testing.T) {
		_, err := ParseLine("   ")
		require.Error(t, err)
	})

	t.Run("QuotedTokensAreShellSplit", func(t *testing.T) {
		dl, err := ParseLine(`/dev/sda -v 231,raw48,"SSD Life Left"`)
		require.NoError(t, err)
		assert.Equal(t, []string{"-v", "231,raw48,SSD Life Left"}, dl.Tokens)
	})
}

func TestParseFile(t *testing.T) {
	t.Run("SkipsBlankAndCommentLines", func(t *testing.T) {
		path := writeTempConfig(t, "# comment\n\n/dev/sda -a\n")
		lines, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "/dev/sda", lines[0].Pathname)
	})

	t.Run("JoinsContinuationLines", func(t *testing.T) {
		path := writeTempConfig(t, "/dev/sda -a \\\n  -d ata\n")
		lines, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, []string{"-a", "-d", "ata"}, lines[0].Tokens)
	})

	t.Run("UnterminatedContinuationIsRejected", func(t *testing.T) {
		path := writeTempConfig(t, "/dev/sda -a \\\n")
		_, err := ParseFile(path)
		require.Error(t, err)
	})

	t.Run("MissingFileIsRejected", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(t.TempDir(), "does-not-exist.conf"))
		require.Error(t, err)
	})

	t.Run("OverlongLineIsRejected", func(t *testing.T) {
		long := make([]byte, 300)
		for i := range long {
			long[i] = 'a'
		}
		path := writeTempConfig(t, string(long)+"\n")
		_, err := ParseFile(path)
		require.Error(t, err)
	})
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildMonitorConfig(t *testing.T) {
	t.Run("AppliesSimpleDirectives", func(t *testing.T) {
		tokens := []string{"-n", "standby", "-b", "exit"}
		cfg, _, err := BuildMonitorConfig(tokens, monitor.Config{})
		require.NoError(t, err)
		assert.Equal(t, monitor.SleepStandby, cfg.SleepFloor)
		assert.Equal(t, "exit", string(cfg.ChecksumPolicy))
	})

	t.Run("DeviceTypeIsSkippedNotRejected", func(t *testing.T) {
		_, _, err := BuildMonitorConfig([]string{"-d", "scsi"}, monitor.Config{})
		require.NoError(t, err)
	})

	t.Run("TemperatureThresholds", func(t *testing.T) {
		cfg, _, err := BuildMonitorConfig([]string{"-W", "4,40,50"}, monitor.Config{})
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.TempDelta)
		assert.Equal(t, 40, cfg.TempInfo)
		assert.Equal(t, 50, cfg.TempCritical)
	})

	t.Run("TemperatureThresholdsRejectsWrongArity", func(t *testing.T) {
		_, _, err := BuildMonitorConfig([]string{"-W", "4,40"}, monitor.Config{})
		require.Error(t, err)
	})

	t.Run("TemperatureThresholdsRejectsNonInteger", func(t *testing.T) {
		_, _, err := BuildMonitorConfig([]string{"-W", "x,40,50"}, monitor.Config{})
		require.Error(t, err)
	})

	t.Run("AttributeIDOverrides", func(t *testing.T) {
		cfg, _, err := BuildMonitorConfig([]string{"-C", "197", "-U", "198", "-R", "194"}, monitor.Config{})
		require.NoError(t, err)
		assert.Equal(t, byte(197), cfg.CurrentPendingID)
		assert.Equal(t, byte(198), cfg.OfflineUncorrectableID)
		assert.Equal(t, byte(194), cfg.TemperatureID)
	})

	t.Run("AttributeIDOutOfRangeIsRejected", func(t *testing.T) {
		_, _, err := BuildMonitorConfig([]string{"-C", "0"}, monitor.Config{})
		require.Error(t, err)
		_, _, err = BuildMonitorConfig([]string{"-C", "256"}, monitor.Config{})
		require.Error(t, err)
	})

	t.Run("OverridesAreRegistered", func(t *testing.T) {
		_, overrides, err := BuildMonitorConfig([]string{"-v", "231,raw48,SSD Life Left"}, monitor.Config{})
		require.NoError(t, err)
		o, ok := overrides.Lookup(231)
		require.True(t, ok)
		assert.Equal(t, "SSD Life Left", o.DisplayName)
	})

	t.Run("SchedulePatternIsKeyedByTestType", func(t *testing.T) {
		cfg, _, err := BuildMonitorConfig([]string{"-s", "L/../../../.."}, monitor.Config{})
		require.NoError(t, err)
		assert.Equal(t, "L/../../../..", cfg.SchedulePattern[monitor.TestLong])
	})

	t.Run("UnrecognizedDirectiveIsRejected", func(t *testing.T) {
		_, _, err := BuildMonitorConfig([]string{"-Z"}, monitor.Config{})
		require.Error(t, err)
	})
}
