// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/platform"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

type fakePort struct {
	openErr error
	script  []func(req *scsi.Request) error
	idx     int
}

func (p *fakePort) Open(path string) (platform.FileHandle, error) {
	if p.openErr != nil {
		return 0, p.openErr
	}
	return 1, nil
}

func (p *fakePort) Close(h platform.FileHandle) error { return nil }

func (p *fakePort) AtaPassThrough(h platform.FileHandle, cmd *ata.Command) (ata.Result, error) {
	return ata.Result{}, errors.New(errors.SmartUnsupported, "not used by this fixture")
}

func (p *fakePort) ScsiPassThrough(h platform.FileHandle, req *scsi.Request) error {
	if p.idx >= len(p.script) {
		return nil
	}
	fn := p.script[p.idx]
	p.idx++
	return fn(req)
}

func padRight(s string, n int) []byte {
	b := []byte(s)
	for len(b) < n {
		b = append(b, ' ')
	}
	return b[:n]
}

func inquiryBytes(vendor, product, extra string) []byte {
	buf := make([]byte, 64)
	copy(buf[8:16], padRight(vendor, 8))
	copy(buf[16:32], padRight(product, 16))
	if extra != "" {
		copy(buf[36:42], []byte(extra))
	}
	return buf
}

func copyInto(data []byte) func(req *scsi.Request) error {
	return func(req *scsi.Request) error {
		copy(req.Buffer, data)
		return nil
	}
}

type fakeDialect struct{ name string }

func (d fakeDialect) Name() string                               { return d.name }
func (d fakeDialect) Encode(cmd *ata.Command) (scsi.Request, error) { return scsi.Request{}, nil }
func (d fakeDialect) Decode(req *scsi.Request) (ata.Result, error)  { return ata.Result{}, nil }

type fakeBridgeLookup struct {
	ctor func(inner *ScsiHandle) Dialect
	err  error
}

func (b fakeBridgeLookup) Lookup(vendorID, productID uint16) (func(inner *ScsiHandle) Dialect, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.ctor, nil
}

func TestAutodetectOpen(t *testing.T) {
	t.Run("OpenFailurePropagates", func(t *testing.T) {
		port := &fakePort{openErr: errors.New(errors.SmartNotFound, "no such device")}
		_, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, nil)
		require.Error(t, err)
	})

	t.Run("BothInquiriesFailPropagatesError", func(t *testing.T) {
		failing := func(req *scsi.Request) error { return errors.New(errors.SmartIO, "ioctl failed") }
		port := &fakePort{script: []func(req *scsi.Request) error{failing, failing}}
		_, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, nil)
		require.Error(t, err)
	})

	t.Run("PlainScsiDeviceReturnsAsIs", func(t *testing.T) {
		port := &fakePort{script: []func(req *scsi.Request) error{
			copyInto(inquiryBytes("SEAGATE", "ST1000", "")),
		}}
		h, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "scsi", h.EffectiveType())
		_, isScsi := h.(*ScsiHandle)
		assert.True(t, isScsi)
	})

	t.Run("ThreeWareVendorIsRejected", func(t *testing.T) {
		port := &fakePort{script: []func(req *scsi.Request) error{
			copyInto(inquiryBytes("3ware", "9000", "")),
		}}
		_, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, nil)
		require.Error(t, err)
	})

	t.Run("MarvellBridgeSetsEffectiveType", func(t *testing.T) {
		failing := func(req *scsi.Request) error { return errors.New(errors.SmartIO, "short inquiry") }
		port := &fakePort{script: []func(req *scsi.Request) error{
			failing,
			copyInto(inquiryBytes("ATA_BRIDGE", "", "MVSATA")),
		}}
		h, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "ata+marvell", h.EffectiveType())
	})

	t.Run("ATAVendorUsesSatProbe", func(t *testing.T) {
		port := &fakePort{script: []func(req *scsi.Request) error{
			copyInto(inquiryBytes("ATA", "", "")),
		}}
		probed := NewAtaHandle("/dev/sg0", port)
		satProbe := func(inner *ScsiHandle) (Handle, bool) { return probed, true }
		h, err := AutodetectOpen("/dev/sg0", port, 0, 0, false, nil, satProbe)
		require.NoError(t, err)
		assert.Same(t, probed, h)
	})

	t.Run("USBBridgeWrapsTunnelHandle", func(t *testing.T) {
		port := &fakePort{script: []func(req *scsi.Request) error{
			copyInto(inquiryBytes("Generic", "USB-SATA", "")),
		}}
		bridges := fakeBridgeLookup{ctor: func(inner *ScsiHandle) Dialect { return fakeDialect{name: "uas"} }}
		h, err := AutodetectOpen("/dev/sg0", port, 0x1234, 0x5678, true, bridges, nil)
		require.NoError(t, err)
		assert.Equal(t, "ata+uas", h.EffectiveType())
		_, isTunnel := h.(*TunnelHandle)
		assert.True(t, isTunnel)
	})

	t.Run("USBBridgeLookupFailureReturnsError", func(t *testing.T) {
		port := &fakePort{script: []func(req *scsi.Request) error{
			copyInto(inquiryBytes("Generic", "USB-SATA", "")),
		}}
		bridges := fakeBridgeLookup{err: errors.New(errors.SmartUnsupported, "unknown bridge")}
		_, err := AutodetectOpen("/dev/sg0", port, 0x1234, 0x5678, true, bridges, nil)
		require.Error(t, err)
	})
}
