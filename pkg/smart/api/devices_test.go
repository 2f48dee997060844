// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stratastor/smartmond/pkg/smart/device"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

func setupDeviceAPITest(t *testing.T, registry *monitor.Registry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/api/v1")
	NewDeviceHandler(registry).RegisterRoutes(v1)
	return router
}

func makeGetRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListDevices(t *testing.T) {
	t.Run("EmptyRegistry", func(t *testing.T) {
		router := setupDeviceAPITest(t, monitor.NewRegistry())
		w := makeGetRequest(t, router, "/api/v1/devices")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"devices":[]}`, w.Body.String())
	})

	t.Run("WithRegisteredDevices", func(t *testing.T) {
		registry := monitor.NewRegistry()
		state, err := monitor.NewDeviceState("/dev/sda", monitor.Config{SleepFloor: monitor.SleepStandby})
		require.NoError(t, err)
		require.NoError(t, registry.Register(device.NewAtaHandle("/dev/sda", nil), state))

		router := setupDeviceAPITest(t, registry)
		w := makeGetRequest(t, router, "/api/v1/devices")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/dev/sda")
		assert.Contains(t, w.Body.String(), "standby")
	})
}

func TestGetDeviceSummary(t *testing.T) {
	t.Run("MissingPathIsBadRequest", func(t *testing.T) {
		router := setupDeviceAPITest(t, monitor.NewRegistry())
		w := makeGetRequest(t, router, "/api/v1/devices/summary")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownPathIsNotFound", func(t *testing.T) {
		router := setupDeviceAPITest(t, monitor.NewRegistry())
		w := makeGetRequest(t, router, "/api/v1/devices/summary?path=/dev/sdz")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RegisteredDeviceReturnsSummary", func(t *testing.T) {
		registry := monitor.NewRegistry()
		state, err := monitor.NewDeviceState("/dev/sda", monitor.Config{})
		require.NoError(t, err)
		state.SelfTestErrorCount = 2
		require.NoError(t, registry.Register(device.NewAtaHandle("/dev/sda", nil), state))

		router := setupDeviceAPITest(t, registry)
		w := makeGetRequest(t, router, "/api/v1/devices/summary?path=/dev/sda")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"self_test_error_count":2`)
	})
}
