// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"os"

	"github.com/rapidaai/media-capture/api/recording-api/config"
	internal_capture "github.com/rapidaai/media-capture/api/recording-api/internal/capture"
	"github.com/rapidaai/media-capture/pkg/commons"
	"github.com/rapidaai/media-capture/pkg/utils"
	"github.com/spf13/cobra"
)

// commandContext loads configuration and the logger once per invocation.
type commandContext struct {
	configPath *string
	cfg        *config.AppConfig
	logger     commons.Logger
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	if *c.configPath != "" {
		if err := os.Setenv("ENV_PATH", *c.configPath); err != nil {
			return nil, err
		}
	}
	v, err := config.InitConfig()
	if err != nil {
		return nil, err
	}
	cfg, err := config.GetApplicationConfig(v)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() (commons.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
		commons.Console(utils.FromEnvironmentStr(cfg.Env) != utils.PRODUCTION),
	)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) commandCapture() internal_capture.CommandConfig {
	return internal_capture.CommandConfig{
		Name:        c.cfg.Capture.Command,
		Args:        c.cfg.Capture.Args,
		SampleRate:  c.cfg.Capture.SampleRate,
		Channels:    c.cfg.Capture.Channels,
		ChunkFrames: c.cfg.Capture.ChunkFrames,
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "media-capture",
		Short:         "Record system audio to Ogg Opus files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to an env configuration file")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newProbeCommand())
	return rootCmd
}
