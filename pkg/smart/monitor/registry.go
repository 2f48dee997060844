// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"sync"

	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/device"
)

// entry pairs a registered device's handle with its monitor state. The
// handle is opened fresh per poll cycle (section 5's resource policy); what
// the registry keeps open across cycles is only Handle's configuration
// (pathname, dialect, port), never an open file descriptor.
type entry struct {
	handle device.Handle
	state  *DeviceState
}

// Registry holds one entry per device under monitoring and is torn down and
// rebuilt wholesale on SIGHUP reload (spec.md section 4.10). It is not safe
// for concurrent use beyond the single-threaded cooperative loop that owns
// it; the mutex only protects against a concurrent signal-handler read of
// Devices while the loop is mutating it.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order; devices poll in this order (spec.md section 5)
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a device under monitoring. Re-registering an already
// present pathname is an error; reload must tear the registry down first.
func (r *Registry) Register(handle device.Handle, state *DeviceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[handle.Pathname()]; exists {
		return errors.New(errors.DiskStateAlreadyRegistered, "device already registered: "+handle.Pathname())
	}
	r.entries[handle.Pathname()] = &entry{handle: handle, state: state}
	r.order = append(r.order, handle.Pathname())
	return nil
}

// Unregister removes a device, e.g. because the config file dropped it on
// reload.
func (r *Registry) Unregister(pathname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, pathname)
	for i, p := range r.order {
		if p == pathname {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// DeviceEntry is one (handle, state) pair as returned by Devices.
type DeviceEntry struct {
	Handle device.Handle
	State  *DeviceState
}

// Devices returns the registered (handle, state) pairs in insertion order.
// Across-device ordering within a cycle is insertion order and not part of
// the contract (spec.md section 5); callers must not rely on it surviving
// a reload.
func (r *Registry) Devices() []DeviceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeviceEntry, 0, len(r.order))
	for _, p := range r.order {
		e := r.entries[p]
		out = append(out, DeviceEntry{Handle: e.handle, State: e.state})
	}
	return out
}

// Len reports how many devices are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Reset tears down every entry, deallocating per-device monitor state
// (spec.md section 3's "deallocated on daemon exit or reload" lifecycle).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry)
	r.order = nil
}
