// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"runtime"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
)

// UnsupportedOpener always fails with UnsupportedPlatform.
func UnsupportedOpener() internal_type.CaptureOpener {
	return func(context.Context, internal_type.CaptureOptions, internal_type.AudioDelivery) (internal_type.CaptureSource, error) {
		return nil, internal_type.NewUnsupportedPlatformError()
	}
}

// NewPlatformOpener picks the capture implementation for this OS. Only a
// configured external recorder on Linux is available.
func NewPlatformOpener(logger commons.Logger, cfg CommandConfig) internal_type.CaptureOpener {
	if runtime.GOOS == "linux" && cfg.Name != "" {
		return CommandOpener(logger, cfg)
	}
	logger.Warnw("No audio capture available on this platform", "os", runtime.GOOS)
	return UnsupportedOpener()
}
