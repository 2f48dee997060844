// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"maps"
	"net/http"
)

// Disk/SMART Management Error Codes (2300-2399)
const (
	// Discovery Errors (2300-2309)
	DiskDiscoveryFailed = 2300 + iota // Failed to discover devices
	DiskDiscoveryTimeout              // Discovery operation timed out
	DiskCorrelationFailed             // Failed to correlate device paths
	DiskCacheError                    // Device cache operation error
	DiskNotFound                      // Device not found
	DiskAlreadyExists                 // Device already registered
)

const (
	// Tunnel / Dialect Errors (2310-2319)
	DiskTunnelEncodeFailed = 2310 + iota // Failed to encode ATA command into carrier CDB
	DiskTunnelDecodeFailed               // Failed to decode carrier response into ATA result
	DiskBridgeNotFound                   // USB bridge (vid:pid) not in bridge table
	DiskBridgeAmbiguous                  // USB bridge table lookup matched more than one dialect
	DiskDialectUnsupported               // Dialect cannot encode the requested command
	DiskDialectNotBuilt                  // Dialect unavailable on this build (e.g. CCISS headers absent)
)

const (
	// Health Monitoring Errors (2320-2329)
	DiskHealthCheckFailed = 2320 + iota // Health check failed
	DiskSMARTReadFailed                 // Failed to read SMART attributes
	DiskSMARTNotAvailable               // SMART not available on device
	DiskSMARTRefreshFailed              // Failed to refresh SMART data
	DiskSMARTParseFailed                // Failed to parse SMART data
	DiskProtocolMismatch                // Status-check register pair matched neither ok nor failing
	DiskIOStatFailed                    // Failed to get iostat metrics
	DiskHealthEvalFailed                // Health evaluation failed
	DiskThresholdExceeded               // Attribute threshold exceeded
)

const (
	// Self-test Scheduling Errors (2330-2339)
	DiskSelfTestScheduleFailed = 2330 + iota // Failed to schedule a self-test
	DiskSelfTestStartFailed                  // Failed to start a self-test
	DiskSelfTestParseFailed                  // Failed to parse self-test log
	DiskSelfTestInProgress                   // A self-test is already in progress
	DiskSelfTestNotCapable                   // Device is not capable of the requested test type
	DiskSelfTestSpanInvalid                  // Selective self-test span out of range
	DiskSchedulePatternInvalid                // Self-test schedule pattern failed to compile
)

const (
	// Notification Dispatch Errors (2340-2349)
	DiskNotifyDeliveryFailed = 2340 + iota // Notifier invocation failed
	DiskNotifyConfigInvalid                // Notifier configuration invalid
	DiskNotifyCategoryUnknown              // Unknown notification category
)

const (
	// Main loop / scheduler errors (2350-2359)
	DiskLoopSignalFailed = 2350 + iota // Signal handling error in main loop
	DiskLoopReloadFailed               // Device registry reload failed
	DiskClockStepped                   // System clock stepped backward; wake time reset
)

const (
	// Configuration Errors (2370-2379)
	DiskConfigInvalid = 2370 + iota // Invalid device manager configuration
	DiskConfigValidationFailed      // Configuration validation failed
	DiskConfigLoadFailed            // Failed to load configuration
	DiskConfigSaveFailed            // Failed to save configuration
	DiskConfigDirectiveInvalid      // Invalid config-file directive
)

const (
	// Monitor State Errors (2380-2389)
	DiskStateNotFound         = 2380 + iota // Per-device monitor state not found
	DiskStateAlreadyRegistered              // Device already has monitor state
	DiskAttributeIDMismatch                  // Attribute id mismatch between value and threshold rows
)

const (
	// Error kinds per the platform I/O port contract (2390-2399)
	SmartNotFound        = 2390 + iota // device path absent
	SmartAccessDenied                  // cannot open device
	SmartIO                            // pass-through failed or unrecoverable sense
	SmartProtocol                      // unexpected response shape
	SmartUnsupported                   // dialect cannot encode this request
	SmartInvalidArgument               // user-side invalid argument
	SmartBusy                          // another SCT/self-test command in progress
	SmartChecksum                      // page checksum failed
)

func init() {
	smartErrorDefinitions := map[ErrorCode]struct {
		message    string
		domain     Domain
		httpStatus int
	}{
		DiskDiscoveryFailed: {
			"Failed to discover devices",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskDiscoveryTimeout: {
			"Device discovery operation timed out",
			DomainSmart,
			http.StatusGatewayTimeout,
		},
		DiskCorrelationFailed: {
			"Failed to correlate device paths",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskCacheError: {
			"Device cache operation error",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskNotFound: {
			"Device not found",
			DomainSmart,
			http.StatusNotFound,
		},
		DiskAlreadyExists: {
			"Device already registered",
			DomainSmart,
			http.StatusConflict,
		},

		DiskTunnelEncodeFailed: {
			"Failed to encode ATA command into carrier CDB",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskTunnelDecodeFailed: {
			"Failed to decode carrier response into ATA result",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskBridgeNotFound: {
			"USB bridge not found in bridge table",
			DomainSmart,
			http.StatusNotFound,
		},
		DiskBridgeAmbiguous: {
			"USB bridge table lookup matched more than one dialect",
			DomainSmart,
			http.StatusConflict,
		},
		DiskDialectUnsupported: {
			"Dialect cannot encode the requested command",
			DomainSmart,
			http.StatusNotImplemented,
		},
		DiskDialectNotBuilt: {
			"Dialect unavailable on this build",
			DomainSmart,
			http.StatusNotImplemented,
		},

		DiskHealthCheckFailed: {
			"Device health check failed",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSMARTReadFailed: {
			"Failed to read SMART attributes",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSMARTNotAvailable: {
			"SMART not available on device",
			DomainSmart,
			http.StatusServiceUnavailable,
		},
		DiskSMARTRefreshFailed: {
			"Failed to refresh SMART data",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSMARTParseFailed: {
			"Failed to parse SMART data",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskProtocolMismatch: {
			"SMART status-check registers matched neither ok nor failing signature",
			DomainSmart,
			http.StatusBadGateway,
		},
		DiskIOStatFailed: {
			"Failed to get device I/O statistics",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskHealthEvalFailed: {
			"Device health evaluation failed",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskThresholdExceeded: {
			"Attribute threshold exceeded",
			DomainSmart,
			http.StatusServiceUnavailable,
		},

		DiskSelfTestScheduleFailed: {
			"Failed to schedule self-test",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSelfTestStartFailed: {
			"Failed to start self-test",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSelfTestParseFailed: {
			"Failed to parse self-test log",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskSelfTestInProgress: {
			"A self-test is already in progress",
			DomainSmart,
			http.StatusConflict,
		},
		DiskSelfTestNotCapable: {
			"Device is not capable of the requested self-test type",
			DomainSmart,
			http.StatusNotImplemented,
		},
		DiskSelfTestSpanInvalid: {
			"Selective self-test span out of range",
			DomainSmart,
			http.StatusBadRequest,
		},
		DiskSchedulePatternInvalid: {
			"Self-test schedule pattern failed to compile",
			DomainSmart,
			http.StatusBadRequest,
		},

		DiskNotifyDeliveryFailed: {
			"Notifier invocation failed",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskNotifyConfigInvalid: {
			"Notifier configuration invalid",
			DomainSmart,
			http.StatusBadRequest,
		},
		DiskNotifyCategoryUnknown: {
			"Unknown notification category",
			DomainSmart,
			http.StatusBadRequest,
		},

		DiskLoopSignalFailed: {
			"Signal handling error in monitor main loop",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskLoopReloadFailed: {
			"Device registry reload failed",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskClockStepped: {
			"System clock stepped backward; wake time reset",
			DomainSmart,
			http.StatusOK,
		},

		DiskConfigInvalid: {
			"Invalid device manager configuration",
			DomainSmart,
			http.StatusBadRequest,
		},
		DiskConfigValidationFailed: {
			"Device configuration validation failed",
			DomainSmart,
			http.StatusBadRequest,
		},
		DiskConfigLoadFailed: {
			"Failed to load device manager configuration",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskConfigSaveFailed: {
			"Failed to save device manager configuration",
			DomainSmart,
			http.StatusInternalServerError,
		},
		DiskConfigDirectiveInvalid: {
			"Invalid config-file directive",
			DomainSmart,
			http.StatusBadRequest,
		},

		DiskStateNotFound: {
			"Per-device monitor state not found",
			DomainSmart,
			http.StatusNotFound,
		},
		DiskStateAlreadyRegistered: {
			"Device already has monitor state registered",
			DomainSmart,
			http.StatusConflict,
		},
		DiskAttributeIDMismatch: {
			"Attribute id mismatch between value and threshold rows",
			DomainSmart,
			http.StatusBadRequest,
		},

		SmartNotFound: {
			"Device path not found",
			DomainSmart,
			http.StatusNotFound,
		},
		SmartAccessDenied: {
			"Cannot open device: access denied",
			DomainSmart,
			http.StatusForbidden,
		},
		SmartIO: {
			"Device pass-through I/O failed",
			DomainSmart,
			http.StatusBadGateway,
		},
		SmartProtocol: {
			"Unexpected response shape from device",
			DomainSmart,
			http.StatusBadGateway,
		},
		SmartUnsupported: {
			"Dialect cannot encode this request",
			DomainSmart,
			http.StatusNotImplemented,
		},
		SmartInvalidArgument: {
			"Invalid argument",
			DomainSmart,
			http.StatusBadRequest,
		},
		SmartBusy: {
			"Another SCT or self-test command is in progress",
			DomainSmart,
			http.StatusConflict,
		},
		SmartChecksum: {
			"Page checksum verification failed",
			DomainSmart,
			http.StatusBadGateway,
		},
	}

	maps.Copy(errorDefinitions, smartErrorDefinitions)

	// The sentinels in errors.go are built before this init runs, so fill in
	// their message and status now that the definitions exist.
	for _, sentinel := range []*RodentError{ErrDeviceNotFound, ErrMonitorStateNotFound} {
		sentinel.Message = errorDefinitions[sentinel.Code].message
		sentinel.HTTPStatus = errorDefinitions[sentinel.Code].httpStatus
	}
}
