// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"fmt"

	"github.com/stratastor/smartmond/pkg/errors"
)

// SpanMode names how a selective self-test span descriptor should be
// resolved against the previous log before writing.
type SpanMode int

const (
	SpanExplicit SpanMode = iota // caller gave an exact {start, end}
	SpanRedo                     // reuse the previous span for this slot
	SpanNext                     // advance past the previous span, wrapping at end-of-disk
	SpanContinue                 // resolve to Redo or Next depending on exec status
)

// Span is one {start_lba, end_lba} entry; StopMax (~0) resolves to
// num_sectors-1, the "-max" shorthand.
type Span struct {
	Start uint64
	End   uint64
}

const StopMax = ^uint64(0)

// SelectiveFlags mirrors the log's flags word.
type SelectiveFlags uint16

const (
	SelectivePending SelectiveFlags = 1 << iota
	SelectiveActive
	SelectiveDoScanAfter
)

// SelectiveSelfTestLog is the selective self-test log: up to five spans, a
// current-span index, a current-LBA progress cursor, flags, and a
// pending-minutes value. It carries its own checksum and must be rewritten
// whole when edited.
type SelectiveSelfTestLog struct {
	Revision      uint16
	Spans         [5]Span
	CurrentSpan   byte
	CurrentLBA    uint64
	Flags         SelectiveFlags
	PendingMinutes uint16
}

// DecodeSelectiveSelfTestLog parses a 512-byte selective self-test log
// sector.
func DecodeSelectiveSelfTestLog(page []byte) SelectiveSelfTestLog {
	var l SelectiveSelfTestLog
	l.Revision = LE16(page[0:2])
	for i := 0; i < 5; i++ {
		off := 2 + i*16
		l.Spans[i] = Span{
			Start: LE64(page[off : off+8]),
			End:   LE64(page[off+8 : off+16]),
		}
	}
	l.CurrentSpan = page[82]
	l.Flags = SelectiveFlags(LE16(page[83:85]))
	l.CurrentLBA = LE64(page[85:93])
	l.PendingMinutes = LE16(page[93:95])
	return l
}

// EncodeSelectiveSelfTestLog serializes l into a fresh 512-byte page and
// stamps its checksum.
func EncodeSelectiveSelfTestLog(l SelectiveSelfTestLog) []byte {
	page := make([]byte, 512)
	PutLE16(page[0:2], l.Revision)
	for i := 0; i < 5; i++ {
		off := 2 + i*16
		PutLE64(page[off:off+8], l.Spans[i].Start)
		PutLE64(page[off+8:off+16], l.Spans[i].End)
	}
	page[82] = l.CurrentSpan
	PutLE16(page[83:85], uint16(l.Flags))
	PutLE64(page[85:93], l.CurrentLBA)
	PutLE16(page[93:95], l.PendingMinutes)

	sum := PageChecksum(page[:511])
	page[511] = byte(0x100 - int(sum)%0x100)
	return page
}

// SpanRequest is one caller-supplied span directive for WriteSelectiveSelfTest.
type SpanRequest struct {
	Slot int
	Mode SpanMode
	// Explicit is used when Mode == SpanExplicit.
	Explicit Span
}

// WriteSelectiveSelfTest resolves each request against the previous log and
// the drive's exec status, then produces a ready-to-write page. numSectors
// is the disk size; zero is a precondition failure. execStatusHighNibble is
// the current self-test exec status (SelfTestInProgress == 15 means a test
// is already running, in which case writing is refused per spec.md section
// 4.3/section 5).
func WriteSelectiveSelfTest(prev SelectiveSelfTestLog, numSectors uint64, execStatusHighNibble byte, reqs []SpanRequest) (SelectiveSelfTestLog, []byte, error) {
	if numSectors == 0 {
		return SelectiveSelfTestLog{}, nil, errors.New(errors.DiskSelfTestSpanInvalid, "disk size is zero")
	}
	if execStatusHighNibble == byte(SelfTestInProgress) {
		return SelectiveSelfTestLog{}, nil, errors.New(errors.DiskSelfTestInProgress,
			"a self-test is already in progress; use the abort instruction first")
	}

	next := prev
	isRedo := execStatusHighNibble == 1 || execStatusHighNibble == 2

	for _, r := range reqs {
		if r.Slot < 0 || r.Slot >= 5 {
			return SelectiveSelfTestLog{}, nil, errors.New(errors.SmartInvalidArgument,
				fmt.Sprintf("span slot %d out of range", r.Slot))
		}

		mode := r.Mode
		if mode == SpanContinue {
			if isRedo {
				mode = SpanRedo
			} else {
				mode = SpanNext
			}
		}

		switch mode {
		case SpanExplicit:
			sp := r.Explicit
			if sp.End == StopMax {
				sp.End = numSectors - 1
			}
			if sp.End >= numSectors {
				return SelectiveSelfTestLog{}, nil, errors.New(errors.DiskSelfTestSpanInvalid,
					fmt.Sprintf("span end %d exceeds disk size %d", sp.End, numSectors))
			}
			next.Spans[r.Slot] = sp
		case SpanRedo:
			next.Spans[r.Slot] = prev.Spans[r.Slot]
		case SpanNext:
			old := prev.Spans[r.Slot]
			oldSize := old.End - old.Start + 1
			start := old.End + 1
			if start >= numSectors {
				start = 0
			}
			end := start + oldSize - 1
			if end >= numSectors {
				// Redistribute evenly so future rotations keep equal-sized spans.
				spans := (numSectors + oldSize - 1) / oldSize
				if spans == 0 {
					spans = 1
				}
				newSize := (numSectors + spans - 1) / spans
				start = numSectors - newSize
				end = numSectors - 1
			}
			next.Spans[r.Slot] = Span{Start: start, End: end}
		}
	}

	next.Flags &^= SelectivePending | SelectiveActive
	next.CurrentLBA = 0

	return next, EncodeSelectiveSelfTestLog(next), nil
}
