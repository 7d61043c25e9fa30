// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import "strings"

type RapidaEnvironment string

const (
	PRODUCTION  RapidaEnvironment = "production"
	DEVELOPMENT RapidaEnvironment = "development"
)

func (e RapidaEnvironment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name; anything unknown is development.
func FromEnvironmentStr(s string) RapidaEnvironment {
	switch strings.ToLower(s) {
	case "production":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
