// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package recording_router

import (
	"github.com/gin-gonic/gin"
	recording_api "github.com/rapidaai/media-capture/api/recording-api/api"
	"github.com/rapidaai/media-capture/api/recording-api/config"
	internal_session "github.com/rapidaai/media-capture/api/recording-api/internal/session"
	"github.com/rapidaai/media-capture/pkg/commons"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, manager *internal_session.Manager) {
	logger.Info("Internal HealthCheckRoutes added to engine.")
	apiv1 := engine.Group("")
	hcApi := recording_api.NewRecordingApi(cfg, logger, manager)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
