// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"fmt"

	"github.com/stratastor/smartmond/pkg/errors"
)

// BridgeID is a (vendor, product, bcd-version) triple; BCD is optional (0
// means "any version" / wildcard).
type BridgeID struct {
	Vendor  uint16
	Product uint16
	BCD     uint16 // 0 = wildcard
}

// BridgeEntry names which dialect a BridgeID maps to, or "unsupported".
type BridgeEntry struct {
	ID      BridgeID
	Dialect string // "unsupported" means explicitly unsupported
}

// USBBridgeTable is the static (vendor:product[:bcd]) -> dialect lookup
// table. Unknown ids are an error — the user is expected to specify the
// dialect explicitly.
var USBBridgeTable = []BridgeEntry{
	{BridgeID{Vendor: 0x04b4, Product: 0x6830}, "cypress"},
	{BridgeID{Vendor: 0x04b4, Product: 0x6831}, "cypress"},
	{BridgeID{Vendor: 0x152d, Product: 0x2338}, "jmicron"},
	{BridgeID{Vendor: 0x152d, Product: 0x2339}, "jmicron"},
	{BridgeID{Vendor: 0x04fc, Product: 0x0c25}, "sunplus"},
	{BridgeID{Vendor: 0x04fc, Product: 0x0c26}, "sunplus"},
	{BridgeID{Vendor: 0x174c, Product: 0x55aa, BCD: 0x0100}, "unsupported"},
}

// BestMatch returns the best match (exact version beats wildcard) for
// (vendor, product, bcd). An ambiguous multi-match across different
// dialects is a hard error; an unknown id is also an error.
func BestMatch(vendor, product, bcd uint16) (string, error) {
	var exact, wildcard []BridgeEntry
	for _, e := range USBBridgeTable {
		if e.ID.Vendor != vendor || e.ID.Product != product {
			continue
		}
		if e.ID.BCD == 0 {
			wildcard = append(wildcard, e)
		} else if e.ID.BCD == bcd {
			exact = append(exact, e)
		}
	}

	candidates := exact
	if len(candidates) == 0 {
		candidates = wildcard
	}
	if len(candidates) == 0 {
		return "", errors.New(errors.DiskBridgeNotFound,
			fmt.Sprintf("no bridge table entry for %#04x:%#04x; specify the dialect explicitly", vendor, product))
	}

	dialect := candidates[0].Dialect
	for _, c := range candidates[1:] {
		if c.Dialect != dialect {
			return "", errors.New(errors.DiskBridgeAmbiguous,
				fmt.Sprintf("bridge table has ambiguous entries for %#04x:%#04x", vendor, product))
		}
	}
	if dialect == "unsupported" {
		return "", errors.New(errors.DiskDialectUnsupported,
			fmt.Sprintf("bridge %#04x:%#04x is known but unsupported", vendor, product))
	}
	return dialect, nil
}
