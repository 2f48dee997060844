// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !cciss

package tunnel

import (
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	"github.com/stratastor/smartmond/pkg/smart/scsi"
)

// CCISS is a thin ioctl wrapper around a SCSI CDB plus a disk number,
// available only where the host's CCISS header is present at build time.
// This default build (no "cciss" build tag) reports not-implemented at
// construction, matching spec.md section 4.5.
type CCISS struct {
	DiskNumber int
}

func NewCCISS(diskNumber int) (*CCISS, error) {
	return nil, errors.New(errors.DiskDialectNotBuilt, "cciss dialect unavailable on this build")
}

func (CCISS) Name() string { return "cciss" }

func (CCISS) Encode(cmd *ata.Command) (scsi.Request, error) {
	return scsi.Request{}, errors.New(errors.DiskDialectNotBuilt, "cciss dialect unavailable on this build")
}

func (CCISS) Decode(req *scsi.Request) (ata.Result, error) {
	return ata.Result{}, errors.New(errors.DiskDialectNotBuilt, "cciss dialect unavailable on this build")
}
