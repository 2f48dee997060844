// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package config parses the daemon config file (spec.md section 6): one
// line per device, first token a pathname or the scan directive, remaining
// tokens mirroring the inspector's flags, backslash line continuation, '#'
// comments.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

const (
	maxRawLineLength        = 256
	maxContinuedLineLength  = 1023
	scanDirective           = "DEVICESCAN"
)

// DeviceLine is one config-file line's pathname plus its directive tokens,
// shell-split per smartd's quoting rules via go-shellquote.
type DeviceLine struct {
	Pathname string
	IsScan   bool
	Tokens   []string
}

// ParseFile reads path and returns one DeviceLine per logical (possibly
// continuation-joined) line. Blank and comment lines are skipped.
func ParseFile(path string) ([]DeviceLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.DiskConfigLoadFailed).WithMetadata("path", path)
	}
	defer f.Close()

	var lines []DeviceLine
	scanner := bufio.NewScanner(f)
	var continued string
	for scanner.Scan() {
		raw := scanner.Text()
		if continued == "" && len(raw) > maxRawLineLength {
			return nil, errors.New(errors.DiskConfigDirectiveInvalid,
				fmt.Sprintf("line exceeds %d bytes", maxRawLineLength))
		}

		trimmed := strings.TrimRight(raw, " \t")
		if strings.HasSuffix(trimmed, "\\") {
			continued += strings.TrimSuffix(trimmed, "\\") + " "
			if len(continued) > maxContinuedLineLength {
				return nil, errors.New(errors.DiskConfigDirectiveInvalid,
					fmt.Sprintf("continued line exceeds %d bytes", maxContinuedLineLength))
			}
			continue
		}

		full := continued + raw
		continued = ""

		line := strings.TrimSpace(full)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		dl, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		lines = append(lines, dl)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.DiskConfigLoadFailed).WithMetadata("path", path)
	}
	if continued != "" {
		return nil, errors.New(errors.DiskConfigDirectiveInvalid, "file ends mid-continuation")
	}
	return lines, nil
}

// ParseLine shell-splits one logical config line into a pathname (or the
// DEVICESCAN directive) plus its remaining directive tokens.
func ParseLine(line string) (DeviceLine, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return DeviceLine{}, errors.Wrap(err, errors.DiskConfigDirectiveInvalid).WithMetadata("line", line)
	}
	if len(tokens) == 0 {
		return DeviceLine{}, errors.New(errors.DiskConfigDirectiveInvalid, "empty directive line")
	}
	dl := DeviceLine{Pathname: tokens[0], Tokens: tokens[1:]}
	dl.IsScan = tokens[0] == scanDirective
	return dl, nil
}

// BuildMonitorConfig translates one device's directive tokens into a
// monitor.Config, applying the daemon's configured defaults first. Only the
// directives spec.md section 6 maps onto monitor.DeviceState are
// recognized here (-d, -n, -b, -W, -C, -U, -R, -v, -s); anything else,
// -I included, is a parse error under the default refuse-on-parse-error
// policy.
func BuildMonitorConfig(tokens []string, defaults monitor.Config) (monitor.Config, *ata.AttributeOverrideTable, error) {
	cfg := defaults
	cfg.SchedulePattern = make(map[monitor.TestType]string)
	overrides := ata.NewAttributeOverrideTable()

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-d":
			i++ // device type handled by autodetect/open, not monitor.Config
		case tok == "-n":
			i++
			if i >= len(tokens) {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-n requires a value")
			}
			cfg.SleepFloor = monitor.SleepFloor(tokens[i])
		case tok == "-b":
			i++
			if i >= len(tokens) {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-b requires a value")
			}
			cfg.ChecksumPolicy = ata.ChecksumPolicy(tokens[i])
		case tok == "-W":
			i++
			if i >= len(tokens) {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-W requires DIFF,INFO,CRIT")
			}
			parts := strings.Split(tokens[i], ",")
			if len(parts) != 3 {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-W requires exactly three comma-separated values")
			}
			var err error
			if cfg.TempDelta, err = strconv.Atoi(parts[0]); err != nil {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-W diff must be an integer")
			}
			if cfg.TempInfo, err = strconv.Atoi(parts[1]); err != nil {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-W info must be an integer")
			}
			if cfg.TempCritical, err = strconv.Atoi(parts[2]); err != nil {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-W crit must be an integer")
			}
		case tok == "-C":
			i++
			id, err := parseAttrID(tokens, i, "-C")
			if err != nil {
				return cfg, nil, err
			}
			cfg.CurrentPendingID = id
		case tok == "-U":
			i++
			id, err := parseAttrID(tokens, i, "-U")
			if err != nil {
				return cfg, nil, err
			}
			cfg.OfflineUncorrectableID = id
		case tok == "-R":
			i++
			id, err := parseAttrID(tokens, i, "-R")
			if err != nil {
				return cfg, nil, err
			}
			cfg.TemperatureID = id
		case tok == "-v":
			i++
			if i >= len(tokens) {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-v requires N,FORMAT[,NAME]")
			}
			if err := parseOverride(tokens[i], overrides); err != nil {
				return cfg, nil, err
			}
		case tok == "-s":
			i++
			if i >= len(tokens) {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-s requires a T/MM/DD/D/HH pattern")
			}
			pattern := tokens[i]
			if len(pattern) == 0 {
				return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, "-s pattern is empty")
			}
			t := monitor.TestType(pattern[0])
			cfg.SchedulePattern[t] = pattern
		default:
			return cfg, nil, errors.New(errors.DiskConfigDirectiveInvalid, fmt.Sprintf("unrecognized directive %q", tok))
		}
	}
	return cfg, overrides, nil
}

func parseAttrID(tokens []string, i int, flag string) (byte, error) {
	if i >= len(tokens) {
		return 0, errors.New(errors.DiskConfigDirectiveInvalid, flag+" requires an attribute id")
	}
	n, err := strconv.Atoi(tokens[i])
	if err != nil || n < 1 || n > 255 {
		return 0, errors.New(errors.DiskConfigDirectiveInvalid, flag+" attribute id must be 1-255")
	}
	return byte(n), nil
}

// parseOverride parses "N,FORMAT[,NAME]" into an ata.AttributeOverride and
// registers it at a fixed priority: directives from the config file always
// outrank the built-in defaults (priority 0), so they are registered at
// priority 1; later -v directives for the same id in the same line win at
// equal priority, per the Register/last-wins resolution rule.
func parseOverride(spec string, table *ata.AttributeOverrideTable) error {
	parts := strings.SplitN(spec, ",", 3)
	if len(parts) < 2 {
		return errors.New(errors.DiskConfigDirectiveInvalid, "-v requires N,FORMAT[,NAME]")
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id < 1 || id > 255 {
		return errors.New(errors.DiskConfigDirectiveInvalid, "-v attribute id must be 1-255")
	}
	o := ata.AttributeOverride{
		ID:       byte(id),
		Format:   ata.AttributeFormat(parts[1]),
		Priority: 1,
	}
	if len(parts) == 3 {
		o.DisplayName = parts[2]
	}
	table.Register(o)
	return nil
}
