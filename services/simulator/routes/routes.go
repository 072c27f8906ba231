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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianGhost/services/simulator/handlers"
	"github.com/AleutianAI/AleutianGhost/services/simulator/observability"
)

// SetupRoutes registers every simulator route on router. gatherer serves
// /metrics; nil skips the endpoint.
func SetupRoutes(router *gin.Engine, engine handlers.Engine, metrics *observability.GhostMetrics, gatherer prometheus.Gatherer) {
	router.GET("/health", handlers.HealthCheck)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		ghostRoutes := v1.Group("/ghost")
		{
			ghostRoutes.POST("/simulate", handlers.HandleSimulate(engine, metrics))
			ghostRoutes.POST("/breaches", handlers.HandleBreaches(engine, metrics))
			ghostRoutes.GET("/stress", handlers.HandleStress(engine, metrics))
			ghostRoutes.GET("/schema", handlers.HandleSchema())
		}
	}
}
