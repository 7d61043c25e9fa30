// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
)

// SanitizeID keeps ASCII letters, digits, '-' and '_'. A missing id, or one
// with nothing left after filtering, becomes the millisecond timestamp.
func SanitizeID(id *string, now time.Time) string {
	fallback := strconv.FormatInt(now.UnixMilli(), 10)
	if id == nil {
		return fallback
	}
	var b strings.Builder
	for _, c := range *id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// ValidateOutputDir requires an absolute path, creates it when missing and
// returns its canonical form.
func ValidateOutputDir(dir string) (string, error) {
	if dir == "" || !filepath.IsAbs(dir) {
		return "", internal_type.NewInvalidOutputDirError(nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", internal_type.NewIoError(err)
	}
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", internal_type.NewInvalidOutputDirError(err)
	}
	return filepath.Clean(canonical), nil
}
