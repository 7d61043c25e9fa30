// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	internal_capture "github.com/rapidaai/media-capture/api/recording-api/internal/capture"
	internal_session "github.com/rapidaai/media-capture/api/recording-api/internal/session"
	recording_router "github.com/rapidaai/media-capture/api/recording-api/router"
	"github.com/rapidaai/media-capture/pkg/utils"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recording HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if utils.FromEnvironmentStr(cfg.Env) == utils.PRODUCTION {
				gin.SetMode(gin.ReleaseMode)
			}
			manager := internal_session.NewManager(logger, internal_capture.NewPlatformOpener(logger, ctx.commandCapture()))
			server := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
				Handler: recording_router.NewEngine(cfg, logger, manager),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("Recording service listening on %s", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-cmd.Context().Done():
				logger.Info("Shutdown signal received")
			case serveErr = <-errCh:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warnw("HTTP server shutdown failed", "error", err)
			}
			artifacts, err := manager.StopAll(shutdownCtx)
			for _, artifact := range artifacts {
				logger.Infof("Finalized recording %s at %s (%dms)", artifact.ID, artifact.FilePath, artifact.DurationMs)
			}
			if err != nil {
				logger.Errorw("Some recordings failed to finalize", "error", err)
			}
			return serveErr
		},
	}
}
