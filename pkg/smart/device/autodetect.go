// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"strings"

	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/platform"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// BridgeLookup resolves a USB (vendor, product) pair to a named dialect
// constructor; implemented by pkg/smart/tunnel's usb bridge table.
type BridgeLookup interface {
	Lookup(vendorID, productID uint16) (func(inner *ScsiHandle) Dialect, error)
}

// AutodetectOpen runs the six-step probe from spec.md section 4.6 against a
// "scsi"-typed handle with no user override, replacing it with a longer-
// lived handle of the same abstract capability when warranted. Only the
// outermost handle returned here should ever reach a caller.
func AutodetectOpen(pathname string, port platform.Port, usbVendorID, usbProductID uint16, hasUSBIDs bool, bridges BridgeLookup, satProbe func(*ScsiHandle) (Handle, bool)) (Handle, error) {
	scsiHandle := NewScsiHandle(pathname, port)
	if err := scsiHandle.Open(); err != nil {
		return nil, err
	}

	inq, err := inquire(scsiHandle, 36)
	if err != nil {
		// Step 1: retry with 64 bytes; some bridges need this.
		inq, err = inquire(scsiHandle, 64)
		if err != nil {
			scsiHandle.Close()
			return nil, err
		}
	}

	vendor := strings.TrimSpace(string(inq[8:16]))
	product := strings.TrimSpace(string(inq[16:32]))

	if strings.Contains(vendor, "3ware") || strings.Contains(vendor, "AMCC") ||
		strings.Contains(product, "3ware") || strings.Contains(product, "AMCC") {
		scsiHandle.Close()
		return nil, errors.New(errors.SmartInvalidArgument,
			"3ware/AMCC controller detected; specify '-d 3ware,N' and a different pathname")
	}

	if len(inq) >= 42 && strings.Contains(string(inq[36:42]), "MVSATA") {
		scsiHandle.effType = "ata+marvell"
		return scsiHandle, nil // marvell dialect: treated as a thin passthrough wrapper, not a distinct tunnel type
	}

	if vendor == "ATA" {
		if satProbe != nil {
			if h, ok := satProbe(scsiHandle); ok {
				return h, nil
			}
		}
	}

	if hasUSBIDs && bridges != nil {
		ctor, err := bridges.Lookup(usbVendorID, usbProductID)
		if err == nil {
			return NewTunnelHandle(pathname, scsiHandle, ctor(scsiHandle)), nil
		}
		scsiHandle.Close()
		return nil, err
	}

	return scsiHandle, nil
}

func inquire(h *ScsiHandle, allocLen byte) ([]byte, error) {
	req := scsi.Inquiry(false, 0, allocLen)
	if err := h.ScsiPassThrough(&req); err != nil {
		return nil, err
	}
	return req.Buffer, nil
}
