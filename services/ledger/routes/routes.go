// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/handlers"
)

func SetupRoutes(router *gin.Engine, ledger *roster.Ledger, hub *handlers.Hub) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.HEAD("/heartbeat", handlers.Heartbeat)

		v1.GET("/masters", handlers.ListMasters(ledger))
		v1.GET("/masters/unassigned", handlers.ListUnassignedMasters(ledger))
		v1.GET("/apprentices", handlers.ListApprentices(ledger))
		v1.GET("/apprentices/unassigned", handlers.ListUnassignedApprentices(ledger))
		v1.GET("/assignments", handlers.ListAssignments(ledger))

		v1.POST("/masters/:masterID/apprentice/:apprenticeID",
			handlers.AssignApprentice(ledger, hub))
		v1.DELETE("/masters/:masterID/apprentice/:apprenticeID",
			handlers.UnassignApprentice(ledger, hub))
		v1.PATCH("/apprentices/:apprenticeID/role",
			handlers.PromoteApprentice(ledger, hub))

		v1.GET("/events/ws", handlers.HandleEventsWebSocket(hub))
	}
}
