// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import (
	"fmt"

	"github.com/stratastor/smartmond/pkg/errors"
)

// ChecksumPolicy controls what happens when a 512-byte page's one's
// complement checksum fails to verify.
type ChecksumPolicy string

const (
	ChecksumWarn   ChecksumPolicy = "warn"
	ChecksumExit   ChecksumPolicy = "exit"
	ChecksumIgnore ChecksumPolicy = "ignore"
)

// PageChecksum sums all 512 bytes of a SMART/GPL log sector; a page that
// conforms to the one-byte checksum convention sums to zero. IDENTIFY pages
// carry the same convention in byte 511, but only when word 255's low byte
// reads 0xA5 (checksum-valid signature).
func PageChecksum(page []byte) byte {
	var sum byte
	for _, b := range page {
		sum += b
	}
	return sum
}

// VerifyChecksum checks a 512-byte page against policy, never mutating the
// page itself — a bad checksum is reported, not corrected.
func VerifyChecksum(page []byte, policy ChecksumPolicy, what string) error {
	if len(page) != 512 {
		return errors.New(errors.SmartInvalidArgument, fmt.Sprintf("%s: page must be 512 bytes, got %d", what, len(page)))
	}
	if PageChecksum(page) == 0 {
		return nil
	}
	switch policy {
	case ChecksumIgnore:
		return nil
	case ChecksumExit:
		return errors.New(errors.SmartChecksum, fmt.Sprintf("%s: checksum verification failed", what))
	default: // warn, or unset
		return errors.New(errors.SmartChecksum, fmt.Sprintf("%s: checksum verification failed (warn policy)", what)).
			WithMetadata("policy", "warn")
	}
}

// IdentifyChecksumValid reports whether word 255's low byte carries the
// 0xA5 checksum-valid signature.
func IdentifyChecksumValid(identify []byte) bool {
	if len(identify) < 512 {
		return false
	}
	return identify[510] == 0xA5
}
