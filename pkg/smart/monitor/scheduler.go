// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"regexp"
	"time"

	"github.com/stratastor/smartmond/pkg/errors"
)

// TestType is one of the four self-test kinds the scheduler iterates in
// priority order L, S, C, O (spec.md section 4.7 step 8).
type TestType byte

const (
	TestLong       TestType = 'L'
	TestShort      TestType = 'S'
	TestConveyance TestType = 'C'
	TestOffline    TestType = 'O'
)

// SchedulePriority lists test types in the priority order the poll cycle
// evaluates them.
var SchedulePriority = []TestType{TestLong, TestShort, TestConveyance, TestOffline}

// schedulePattern matches the spec.md section 4.8 grammar T/MM/DD/D/HH,
// compiled once per configuration load. Go's regexp is RE2, not POSIX ERE;
// this grammar's character classes and anchors are expressible in both, so
// RE2 is used as a deliberate stdlib choice (see DESIGN.md) rather than
// pulling in a POSIX-ERE library no pack example carries.
var schedulePattern = regexp.MustCompile(`^[LSCO]/((0[1-9])|(1[0-2])|\.\.)/((0[1-9])|([12][0-9])|(3[01])|\.\.)/([1-7]|\.\.)/(([01][0-9])|(2[0-3])|\.\.)$`)

// CompileSchedule compiles a user-supplied T/MM/DD/D/HH pattern into a
// regexp matched against a formatted time string. ^ and $ anchoring ensures
// the entire string must match; partial matches are rejected (boundary
// behavior, spec.md section 8).
func CompileSchedule(pattern string) (*regexp.Regexp, error) {
	if !schedulePattern.MatchString(pattern) {
		return nil, errors.New(errors.DiskSchedulePatternInvalid, fmt.Sprintf("schedule pattern %q failed to compile", pattern))
	}
	// Translate the grammar's literal fields into an anchored match regex:
	// literal fields are matched as-is and each ".." wildcard becomes a digit
	// match of the field's width: two digits for MM, DD and HH, one digit for
	// the weekday field D.
	expr := "^" + regexp.QuoteMeta(pattern[:1]) + "/"
	rest := pattern[2:]
	for i, field := range splitFields(rest) {
		if i > 0 {
			expr += "/"
		}
		if field == ".." {
			if i == 2 {
				expr += `\d`
			} else {
				expr += `\d{2}`
			}
		} else {
			expr += regexp.QuoteMeta(field)
		}
	}
	expr += "$"
	return regexp.Compile(expr)
}

func splitFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '/' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

// FormatScheduleKey renders the local time t as the "MM/DD/D/HH" string a
// compiled schedule regex is matched against, for a given test type tag.
func FormatScheduleKey(testType TestType, t time.Time) string {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // spec.md: 1=Mon .. 7=Sun
	}
	return fmt.Sprintf("%c/%02d/%02d/%d/%02d", byte(testType), int(t.Month()), t.Day(), weekday, t.Hour())
}

// HourOfYearBucket returns an hour-of-year bucket for t, used to dedupe a
// scheduled test firing twice within the same hour (e.g. after a clock
// nudge).
func HourOfYearBucket(t time.Time) int {
	return t.YearDay()*24 + t.Hour()
}

// Eligible reports whether testType is due to run: its pattern matches now,
// and the current hour-of-year bucket differs from the last time it ran.
func Eligible(state *DeviceState, testType TestType, now time.Time) bool {
	re, ok := state.ScheduleRegex[testType]
	if !ok || state.NotCapable[testType] {
		return false
	}
	if !re.MatchString(FormatScheduleKey(testType, now)) {
		return false
	}
	bucket := HourOfYearBucket(now)
	return state.LastRunBucket[testType] != bucket
}

// PickScheduledTest iterates SchedulePriority and returns the first
// eligible test type; only one test may start per cycle (spec.md section
// 4.7 step 8). When two types match the same hour, the higher-priority one
// wins and the loser is simply not returned (callers log-and-skip it by
// checking Eligible again on their own if they want that detail).
func PickScheduledTest(state *DeviceState, now time.Time) (TestType, bool) {
	for _, t := range SchedulePriority {
		if Eligible(state, t, now) {
			return t, true
		}
	}
	return 0, false
}

// RecordScheduledRun stamps the hour-of-year bucket after a test starts
// successfully.
func RecordScheduledRun(state *DeviceState, testType TestType, now time.Time) {
	state.LastRunBucket[testType] = HourOfYearBucket(now)
}
