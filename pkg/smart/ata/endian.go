// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ata

import "encoding/binary"

// Explicit LE/BE accessors replace run-time host-endianness probing. ATA
// IDENTIFY data and SMART log sectors are little-endian on the wire; every
// platform that returns them in a different order (NetBSD's "already
// native" kernel quirk) is handled by the NetBSDNative constant below, not
// by inspecting the host at run time.

func LE16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func LE32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func LE64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func PutLE16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func PutLE32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func PutLE64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// SwapBytes16/32/64 exchange a value's byte order in place; used when a
// source page was produced or must be stored in the opposite order from
// this host's working representation. SwapBytes16(SwapBytes16(x)) == x for
// all x, and likewise for 32/64 (testable property in spec.md section 8).
func SwapBytes16(v uint16) uint16 {
	return v<<8 | v>>8
}

func SwapBytes32(v uint32) uint32 {
	return v<<24 | (v&0xff00)<<8 | (v>>8)&0xff00 | v>>24
}

func SwapBytes64(v uint64) uint64 {
	return uint64(SwapBytes32(uint32(v)))<<32 | uint64(SwapBytes32(uint32(v>>32)))
}

// NetBSDNative reports whether the current build returns IDENTIFY data
// already in host byte order, bypassing the normal big-endian-host swap
// path. Plain Linux/amd64 builds (the only platform this module targets)
// are never native-swapped.
const NetBSDNative = false
