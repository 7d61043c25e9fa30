// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"encoding/json"
	"time"

	internal_capture "github.com/rapidaai/media-capture/api/recording-api/internal/capture"
	internal_session "github.com/rapidaai/media-capture/api/recording-api/internal/session"
	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/utils"
	"github.com/spf13/cobra"
)

type recordFlags struct {
	outputDir  string
	id         string
	format     string
	duration   time.Duration
	synthetic  bool
	toneHz     float64
	sampleRate uint32
	channels   uint32
	appPID     uint32
	exclude    []uint
}

func (f recordFlags) startOptions(cmd *cobra.Command) internal_type.RecordingStartOptions {
	opts := internal_type.RecordingStartOptions{OutputDir: f.outputDir}
	if cmd.Flags().Changed("id") {
		opts.ID = &f.id
	}
	if cmd.Flags().Changed("format") {
		opts.Format = &f.format
	}
	if cmd.Flags().Changed("sample-rate") {
		opts.SampleRate = &f.sampleRate
	}
	if cmd.Flags().Changed("channels") {
		opts.Channels = &f.channels
	}
	if cmd.Flags().Changed("app-pid") {
		opts.AppProcessID = &f.appPID
	}
	for _, pid := range f.exclude {
		opts.ExcludeProcessIDs = append(opts.ExcludeProcessIDs, uint32(pid))
	}
	return opts
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record for a fixed duration and print the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			opener := internal_capture.NewPlatformOpener(logger, ctx.commandCapture())
			if flags.synthetic {
				rate := flags.sampleRate
				if rate == 0 {
					rate = 48000
				}
				channels := flags.channels
				if channels == 0 {
					channels = 2
				}
				opener = internal_capture.SyntheticOpener(internal_capture.SyntheticConfig{
					SampleRate:  rate,
					Channels:    channels,
					ChunkFrames: int(rate / 100),
					Interval:    10 * time.Millisecond,
					ToneHz:      flags.toneHz,
				})
			}
			if utils.IsEmpty(flags.outputDir) {
				flags.outputDir = ctx.cfg.OutputDir
			}

			manager := internal_session.NewManager(logger, opener)
			meta, err := manager.Start(cmd.Context(), flags.startOptions(cmd))
			if err != nil {
				return err
			}
			cmd.PrintErrf("recording %s to %s\n", meta.ID, meta.FilePath)

			timer := time.NewTimer(flags.duration)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-cmd.Context().Done():
			}

			artifact, err := manager.Stop(meta.ID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(artifact)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Absolute directory for the recording")
	cmd.Flags().StringVar(&flags.id, "id", "", "Recording id (sanitized)")
	cmd.Flags().StringVar(&flags.format, "format", "opus", "Output format")
	cmd.Flags().DurationVarP(&flags.duration, "duration", "d", 5*time.Second, "How long to record")
	cmd.Flags().BoolVar(&flags.synthetic, "synthetic", false, "Record a generated signal instead of system audio")
	cmd.Flags().Float64Var(&flags.toneHz, "tone", 0, "Synthetic tone frequency in Hz; 0 records silence")
	cmd.Flags().Uint32Var(&flags.sampleRate, "sample-rate", 0, "Requested capture sample rate")
	cmd.Flags().Uint32Var(&flags.channels, "channels", 0, "Channel count, 1 or 2")
	cmd.Flags().Uint32Var(&flags.appPID, "app-pid", 0, "Capture a single process instead of system-wide audio")
	cmd.Flags().UintSliceVar(&flags.exclude, "exclude-pid", nil, "Process ids to leave out of system-wide capture")
	return cmd
}
