/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package inspect is the one-shot device report CLI (spec.md section 6's
// inspector). Flag parsing stays thin on purpose: it only assembles the
// requests the core types already know how to build and print what comes
// back, rather than reimplementing a presentation layer (the Non-goal
// "human-readable ATA-attribute rendering tables", spec.md section 1).
package inspect

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/device"
	"github.com/stratastor/smartmond/pkg/smart/platform"
	"github.com/stratastor/smartmond/pkg/smart/report"
)

var (
	flagHealth     bool
	flagAttributes bool
	flagDeviceType string
	flagChecksum   string
)

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect PATHNAME",
		Short: "Print a one-shot SMART report for a device",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	cmd.Flags().BoolVarP(&flagHealth, "health", "H", false, "Print overall-health self-assessment")
	cmd.Flags().BoolVarP(&flagAttributes, "attributes", "A", false, "Print the SMART attribute table")
	cmd.Flags().StringVarP(&flagDeviceType, "device", "d", "ata", "Device type (only ata is accepted)")
	cmd.Flags().StringVarP(&flagChecksum, "checksum-policy", "b", "warn", "Checksum policy: warn, exit, or ignore")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	pathname := args[0]
	port := platform.NewPort()

	var handle device.AtaCapable
	switch flagDeviceType {
	case "ata":
		h := device.NewAtaHandle(pathname, port)
		if err := h.Open(); err != nil {
			return fmt.Errorf("open %s: %w", pathname, err)
		}
		defer h.Close()
		handle = h
	default:
		return fmt.Errorf("device type %q is not yet wired into the inspector", flagDeviceType)
	}

	rep := report.NewReport(pathname, flagDeviceType, time.Now())
	policy := ata.ChecksumPolicy(flagChecksum)

	if flagHealth || !anyFlagSet() {
		if err := printHealth(handle, rep); err != nil {
			rep.AddBit(report.FailSmart)
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		}
	}

	if flagAttributes {
		if err := printAttributes(handle, rep, policy); err != nil {
			rep.AddBit(report.FailLog)
			fmt.Fprintf(os.Stderr, "attribute read failed: %v\n", err)
		}
	}

	os.Exit(rep.ExitCode())
	return nil
}

func anyFlagSet() bool {
	return flagHealth || flagAttributes
}

func printHealth(h device.AtaCapable, rep *report.Report) error {
	cmd, err := ata.BuildCommand(ata.StatusCheck, 0, nil)
	if err != nil {
		return err
	}
	res, err := h.AtaPassThrough(&cmd)
	if err != nil {
		return err
	}
	health, err := ata.DecodeHealthStatus(res.Output.LBAMid.Value, res.Output.LBAHigh.Value)
	rep.Health = health
	rep.HealthErr = err
	if err != nil {
		return err
	}
	if health == ata.HealthFailing {
		rep.AddBit(report.FailStatus)
		fmt.Println("SMART overall-health self-assessment test result: FAILED")
	} else {
		fmt.Println("SMART overall-health self-assessment test result: PASSED")
	}
	return nil
}

func printAttributes(h device.AtaCapable, rep *report.Report, policy ata.ChecksumPolicy) error {
	valCmd, err := ata.BuildCommand(ata.ReadValues, 0, nil)
	if err != nil {
		return err
	}
	valRes, err := h.AtaPassThrough(&valCmd)
	if err != nil {
		return err
	}
	if err := ata.VerifyChecksum(valRes.Buffer, policy, "attribute table"); err != nil && policy == ata.ChecksumExit {
		return err
	}

	thrCmd, err := ata.BuildCommand(ata.ReadThresholds, 0, nil)
	if err != nil {
		return err
	}
	thrRes, err := h.AtaPassThrough(&thrCmd)
	if err != nil {
		return err
	}
	if err := ata.VerifyChecksum(thrRes.Buffer, policy, "threshold table"); err != nil && policy == ata.ChecksumExit {
		return err
	}

	attrs := ata.DecodeAttributeTable(valRes.Buffer)
	thresholds := ata.DecodeThresholdTable(thrRes.Buffer)
	rep.Attributes = report.BuildAttributeRows(attrs, thresholds, nil)
	report.EvaluateAttributeBits(rep)

	fmt.Printf("%-4s %-24s %-10s %-7s %-7s %-9s %s\n", "ID", "ATTRIBUTE_NAME", "FORMAT", "VALUE", "WORST", "THRESH", "RAW_VALUE")
	for _, row := range rep.Attributes {
		name := row.DisplayName
		if name == "" {
			name = fmt.Sprintf("Unknown_Attribute_%d", row.ID)
		}
		fmt.Printf("%-4d %-24s %-10s %-7d %-7d %-9d %v\n",
			row.ID, name, row.RawFormat, row.Current, row.Worst, row.Threshold, row.RawValue)
	}
	return nil
}
