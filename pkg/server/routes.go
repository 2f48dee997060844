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

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/stratastor/smartmond/pkg/smart/api"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

// registerSmartRoutes exposes the daemon's live device registry: the set of
// devices under monitoring and the state each one has accumulated so far.
// It takes the same *monitor.Registry the daemon's poll Loop reads from, so
// the HTTP view and the poll cycle are always looking at the same state.
func registerSmartRoutes(engine *gin.Engine, registry *monitor.Registry) {
	deviceHandler := api.NewDeviceHandler(registry)

	v1 := engine.Group("/api/v1")
	{
		deviceHandler.RegisterRoutes(v1)
	}
}
