// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package recording_api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rapidaai/media-capture/api/recording-api/config"
	internal_session "github.com/rapidaai/media-capture/api/recording-api/internal/session"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
	"github.com/rapidaai/media-capture/pkg/utils"
)

const RequestIDKey = "requestId"

type RecordingApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	manager  *internal_session.Manager
	validate *validator.Validate
}

func NewRecordingApi(cfg *config.AppConfig, logger commons.Logger, manager *internal_session.Manager) *RecordingApi {
	return &RecordingApi{
		cfg:      cfg,
		logger:   logger,
		manager:  manager,
		validate: validator.New(),
	}
}

// StartRecording begins a new capture session.
//
// @Router /v1/recordings [post]
// @Success 201 {object} internal_type.RecordingSessionMeta
// @Failure 400 {object} gin.H
// @Failure 409 {object} gin.H
func (api *RecordingApi) StartRecording(c *gin.Context) {
	var opts internal_type.RecordingStartOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad-request", "error": err.Error()})
		return
	}
	if utils.IsEmpty(opts.OutputDir) && api.cfg != nil {
		opts.OutputDir = api.cfg.OutputDir
	}
	if err := api.validate.Struct(&opts); err != nil {
		api.respondError(c, internal_type.NewInvalidOutputDirError(err))
		return
	}

	meta, err := api.manager.Start(c.Request.Context(), opts)
	if err != nil {
		api.logger.Errorw("Unable to start recording", RequestIDKey, c.GetString(RequestIDKey), "error", err)
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}

// StopRecording stops a session and returns the finished file.
//
// @Router /v1/recordings/:id [delete]
// @Success 200 {object} internal_type.RecordingArtifact
// @Failure 404 {object} gin.H
func (api *RecordingApi) StopRecording(c *gin.Context) {
	id := c.Param("id")
	artifact, err := api.manager.Stop(id)
	if err != nil {
		api.logger.Errorw("Unable to stop recording", RequestIDKey, c.GetString(RequestIDKey), "id", id, "error", err)
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// @Router /v1/recordings [get]
func (api *RecordingApi) ListRecordings(c *gin.Context) {
	recordings, err := api.manager.List()
	if err != nil {
		api.respondError(c, err)
		return
	}
	if recordings == nil {
		recordings = []internal_type.RecordingSessionMeta{}
	}
	c.JSON(http.StatusOK, gin.H{"recordings": recordings})
}

func (api *RecordingApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"healthy": true})
}

// Readiness fails once the session registry is unusable.
func (api *RecordingApi) Readiness(c *gin.Context) {
	if api.manager.IsPoisoned() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (api *RecordingApi) respondError(c *gin.Context, err error) {
	var re *internal_type.RecordingError
	if !errors.As(err, &re) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal-error", "error": err.Error()})
		return
	}
	c.JSON(StatusFor(err), gin.H{"code": re.Code(), "error": re.Error()})
}

// StatusFor maps a recording error onto an HTTP status.
func StatusFor(err error) int {
	kind, ok := internal_type.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case internal_type.InvalidFormat, internal_type.InvalidOutputDir:
		return http.StatusBadRequest
	case internal_type.NotFound:
		return http.StatusNotFound
	case internal_type.Empty:
		return http.StatusUnprocessableEntity
	case internal_type.UnsupportedPlatform:
		return http.StatusNotImplemented
	case internal_type.Start:
		if errors.Is(err, internal_type.ErrDuplicateSession) {
			return http.StatusConflict
		}
		if internal_type.IsKind(errors.Unwrap(err), internal_type.UnsupportedPlatform) {
			return http.StatusNotImplemented
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
