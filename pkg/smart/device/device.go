// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package device implements the polymorphic device handle: a sum type over
// an ATA handle, a SCSI handle, and a tunnel handle that carries an ATA
// command inside a SCSI handle it owns.
package device

import (
	"sync"

	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/platform"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// Capability is the single kind a Handle carries (CapATA or CapSCSI, plain
// enumerated values, not bit flags); a plain handle is ever only one of the
// two, but a tunnel's outer capability (ATA) differs from its
// inner handle's capability (SCSI).
type Capability int

const (
	CapATA Capability = iota
	CapSCSI
)

// Handle is the common interface every device variant implements. Pathname
// and RequestedType are informational; EffectiveType may differ after
// autodetect replaces the handle. LastError carries the numeric code plus
// message of the most recent failed operation.
type Handle interface {
	Pathname() string
	EffectiveType() string
	Capability() Capability
	Open() error
	Close() error
	IsOpen() bool
	LastError() error
}

// base holds the fields common to every handle variant.
type base struct {
	mu       sync.Mutex
	pathname string
	reqType  string
	effType  string
	open     bool
	lastErr  error
	port     platform.Port
	fd       platform.FileHandle
}

func (b *base) Pathname() string      { return b.pathname }
func (b *base) EffectiveType() string { return b.effType }
func (b *base) IsOpen() bool          { b.mu.Lock(); defer b.mu.Unlock(); return b.open }
func (b *base) LastError() error      { return b.lastErr }

// AtaHandle is a device handle whose pass-through is a direct ATA taskfile
// transport (no SCSI tunnel involved).
type AtaHandle struct {
	base
}

func NewAtaHandle(pathname string, port platform.Port) *AtaHandle {
	return &AtaHandle{base: base{pathname: pathname, reqType: "ata", effType: "ata", port: port}}
}

func (h *AtaHandle) Capability() Capability { return CapATA }

func (h *AtaHandle) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open {
		return nil
	}
	fd, err := h.port.Open(h.pathname)
	if err != nil {
		h.lastErr = err
		return err
	}
	h.fd, h.open = fd, true
	return nil
}

func (h *AtaHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil // double-close is a no-op (invariant 1, spec.md section 8)
	}
	err := h.port.Close(h.fd)
	h.open = false
	return err
}

func (h *AtaHandle) AtaPassThrough(cmd *ata.Command) (ata.Result, error) {
	if !h.IsOpen() {
		return ata.Result{}, errors.New(errors.SmartIO, "device not open")
	}
	return h.port.AtaPassThrough(h.fd, cmd)
}

// ScsiHandle is a device handle whose pass-through is a direct SCSI CDB
// transport.
type ScsiHandle struct {
	base
}

func NewScsiHandle(pathname string, port platform.Port) *ScsiHandle {
	return &ScsiHandle{base: base{pathname: pathname, reqType: "scsi", effType: "scsi", port: port}}
}

func (h *ScsiHandle) Capability() Capability { return CapSCSI }

func (h *ScsiHandle) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open {
		return nil
	}
	fd, err := h.port.Open(h.pathname)
	if err != nil {
		h.lastErr = err
		return err
	}
	h.fd, h.open = fd, true
	return nil
}

func (h *ScsiHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil
	}
	err := h.port.Close(h.fd)
	h.open = false
	return err
}

func (h *ScsiHandle) ScsiPassThrough(req *scsi.Request) error {
	if !h.IsOpen() {
		return errors.New(errors.SmartIO, "device not open")
	}
	return h.port.ScsiPassThrough(h.fd, req)
}

// Dialect is implemented once per tunnel bridge/enclosure in
// pkg/smart/tunnel; it encodes an ATA command into a SCSI request against
// the inner handle and decodes the response back into an ata.Result.
type Dialect interface {
	Name() string
	Encode(cmd *ata.Command) (scsi.Request, error)
	Decode(req *scsi.Request) (ata.Result, error)
}

// TunnelHandle exposes an ATA capability implemented on top of an owned
// SCSI handle, translated through dialect. Closing the outer handle closes
// the inner handle exactly once.
type TunnelHandle struct {
	base
	inner   *ScsiHandle
	dialect Dialect
}

func NewTunnelHandle(pathname string, inner *ScsiHandle, dialect Dialect) *TunnelHandle {
	return &TunnelHandle{
		base:    base{pathname: pathname, reqType: "ata", effType: "ata+" + dialect.Name()},
		inner:   inner,
		dialect: dialect,
	}
}

func (h *TunnelHandle) Capability() Capability { return CapATA }

func (h *TunnelHandle) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open {
		return nil
	}
	if err := h.inner.Open(); err != nil {
		h.lastErr = err
		return err
	}
	h.open = true
	return nil
}

// Close cascades to the inner handle; idempotent (invariant 1).
func (h *TunnelHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil
	}
	h.open = false
	return h.inner.Close()
}

func (h *TunnelHandle) AtaPassThrough(cmd *ata.Command) (ata.Result, error) {
	if !h.IsOpen() {
		return ata.Result{}, errors.New(errors.SmartIO, "device not open")
	}
	req, err := h.dialect.Encode(cmd)
	if err != nil {
		return ata.Result{}, err
	}
	if err := h.inner.ScsiPassThrough(&req); err != nil {
		return ata.Result{}, err
	}
	return h.dialect.Decode(&req)
}

// AtaCapable is implemented by any Handle whose pass-through speaks ATA
// directly, whether natively (AtaHandle) or through a tunnel (TunnelHandle).
// Monitor code type-asserts a Handle to this interface rather than switching
// on concrete types.
type AtaCapable interface {
	Handle
	AtaPassThrough(cmd *ata.Command) (ata.Result, error)
}

// ScsiCapable is implemented by any Handle whose pass-through speaks SCSI
// CDBs directly.
type ScsiCapable interface {
	Handle
	ScsiPassThrough(req *scsi.Request) error
}

// DialectOf returns the wrapping tunnel dialect, or false for non-tunnel
// handles.
func DialectOf(h Handle) (Dialect, bool) {
	t, ok := h.(*TunnelHandle)
	if !ok {
		return nil, false
	}
	return t.dialect, true
}
