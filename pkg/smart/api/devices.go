/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api exposes the daemon's live device registry over HTTP: a list of
// currently monitored devices and a per-device snapshot of the state the
// poll cycle has accumulated so far. It reads Registry/DeviceState directly
// rather than triggering a fresh hardware poll from the request path, so an
// HTTP client never contends with the daemon's own poll cycle for the device.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/smartmond/internal/common"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

// DeviceHandler serves the registry's device list and per-device snapshots.
type DeviceHandler struct {
	registry *monitor.Registry
}

func NewDeviceHandler(registry *monitor.Registry) *DeviceHandler {
	return &DeviceHandler{registry: registry}
}

// deviceSummary is the JSON view of one DeviceState; it deliberately omits
// the internal scheduling/regex fields and exposes only what a caller
// monitoring the daemon from outside would want.
type deviceSummary struct {
	Pathname           string `json:"pathname"`
	SleepFloor         string `json:"sleep_floor"`
	SelfTestErrorCount int    `json:"self_test_error_count"`
	ATAErrorLogCount   int    `json:"ata_error_log_count"`
	TemperatureCurrent int    `json:"temperature_current"`
	TemperatureMin     int    `json:"temperature_min"`
	TemperatureMax     int    `json:"temperature_max"`
}

func summarize(s *monitor.DeviceState) deviceSummary {
	return deviceSummary{
		Pathname:           s.Pathname,
		SleepFloor:         string(s.Config.SleepFloor),
		SelfTestErrorCount: s.SelfTestErrorCount,
		ATAErrorLogCount:   s.ATAErrorLogCount,
		TemperatureCurrent: s.Temperature.Current,
		TemperatureMin:     s.Temperature.Min,
		TemperatureMax:     s.Temperature.Max,
	}
}

func (h *DeviceHandler) listDevices(c *gin.Context) {
	entries := h.registry.Devices()
	summaries := make([]deviceSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, summarize(e.State))
	}
	c.JSON(http.StatusOK, gin.H{"devices": summaries})
}

func (h *DeviceHandler) getDevice(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		common.APIError(c, errors.New(errors.ServerRequestValidation, "path query parameter is required"))
		return
	}
	for _, e := range h.registry.Devices() {
		if e.State.Pathname == path {
			c.JSON(http.StatusOK, summarize(e.State))
			return
		}
	}
	common.APIError(c, errors.New(errors.DiskStateNotFound, "device is not registered"))
}

// RegisterRoutes wires the device registry under /devices on v1, mirroring
// the ZFS handlers' own RegisterRoutes(router) shape.
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.GET("/summary", h.getDevice)
	}
}
