// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package platform is the minimal I/O port: open/close a device handle and
// ship one raw CDB or one raw ATA taskfile to the kernel, surfacing errno
// and sense. Some platforms implement only one of the two pass-through
// kinds; tunnelling (pkg/smart/tunnel) turns an ATA request into a SCSI
// request where needed.
package platform

import (
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// FileHandle is the opaque platform file descriptor a Port hands back from
// Open; it is only ever passed back into the same Port.
type FileHandle uintptr

// Port is implemented once per OS. linux.go backs it with SG_IO and
// HDIO_DRIVE_CMD; generic.go is a build-tagged stub for
// every other OS that answers every call with unsupported.
type Port interface {
	Open(path string) (FileHandle, error)
	Close(h FileHandle) error
	ScsiPassThrough(h FileHandle, req *scsi.Request) error
	AtaPassThrough(h FileHandle, cmd *ata.Command) (ata.Result, error)
}
