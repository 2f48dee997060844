// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package platform

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

type genericPort struct{}

// NewPort returns a stub Port for platforms without a native pass-through
// implementation; every call reports unsupported, matching spec.md
// section 4.1's allowance that "some platforms implement only one of the
// two" command families (here: neither).
func NewPort() Port { return genericPort{} }

func (genericPort) Open(path string) (FileHandle, error) {
	return 0, errors.New(errors.SmartUnsupported, "platform I/O port not implemented on this OS")
}

func (genericPort) Close(h FileHandle) error {
	return errors.New(errors.SmartUnsupported, "platform I/O port not implemented on this OS")
}

func (genericPort) ScsiPassThrough(h FileHandle, req *scsi.Request) error {
	return errors.New(errors.SmartUnsupported, "SCSI pass-through not implemented on this OS")
}

func (genericPort) AtaPassThrough(h FileHandle, cmd *ata.Command) (ata.Result, error) {
	return ata.Result{}, errors.New(errors.SmartUnsupported, "ATA pass-through not implemented on this OS")
}
