// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package recording_router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	recording_api "github.com/rapidaai/media-capture/api/recording-api/api"
	"github.com/rapidaai/media-capture/api/recording-api/config"
	internal_session "github.com/rapidaai/media-capture/api/recording-api/internal/session"
	"github.com/rapidaai/media-capture/pkg/commons"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(recording_api.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			recording_api.RequestIDKey, c.GetString(recording_api.RequestIDKey),
		)
	}
}

func Cors(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range allowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = allowOrigins
	}
	if !cfg.AllowAllOrigins && len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

// NewEngine builds the gin engine with every route registered.
func NewEngine(cfg *config.AppConfig, logger commons.Logger, manager *internal_session.Manager) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(logger), Cors(cfg.CorsAllowOrigins))
	HealthCheckRoutes(cfg, engine, logger, manager)
	RecordingApiRoute(cfg, engine, logger, manager)
	return engine
}
