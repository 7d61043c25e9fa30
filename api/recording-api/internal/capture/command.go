// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	internal_type "github.com/rapidaai/media-capture/api/recording-api/internal/type"
	"github.com/rapidaai/media-capture/pkg/commons"
)

// CommandConfig runs an external recorder that writes interleaved
// little-endian float32 PCM to stdout, e.g.
//
//	parec --format=float32le --rate={rate} --channels={channels}
//
// {rate} and {channels} in Args are replaced before the process starts.
type CommandConfig struct {
	Name        string
	Args        []string
	SampleRate  uint32
	Channels    uint32
	ChunkFrames int
	StopTimeout time.Duration
}

// Command is a capture source backed by a child process.
type Command struct {
	logger   commons.Logger
	cfg      CommandConfig
	cmd      *exec.Cmd
	delivery internal_type.AudioDelivery

	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

var _ internal_type.CaptureSource = (*Command)(nil)

// ExpandArgs substitutes the rate and channel placeholders.
func ExpandArgs(args []string, rate, channels uint32) []string {
	r := strings.NewReplacer("{rate}", strconv.FormatUint(uint64(rate), 10), "{channels}", strconv.FormatUint(uint64(channels), 10))
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// StartCommand launches the recorder process and begins streaming its output.
func StartCommand(logger commons.Logger, cfg CommandConfig, delivery internal_type.AudioDelivery) (*Command, error) {
	if cfg.Name == "" {
		return nil, errors.New("capture command not configured")
	}
	if _, err := exec.LookPath(cfg.Name); err != nil {
		return nil, fmt.Errorf("%s not found: %w", cfg.Name, err)
	}
	if cfg.Channels < 1 {
		cfg.Channels = 2
	}
	if cfg.ChunkFrames < 1 {
		cfg.ChunkFrames = int(cfg.SampleRate / 100)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 2 * time.Second
	}

	cmd := exec.Command(cfg.Name, ExpandArgs(cfg.Args, cfg.SampleRate, cfg.Channels)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Name, err)
	}

	c := &Command{
		logger:   logger,
		cfg:      cfg,
		cmd:      cmd,
		delivery: delivery,
		done:     make(chan struct{}),
	}
	go c.pump(stdout)
	logger.Infow("Capture command started", "command", cfg.Name, "pid", cmd.Process.Pid, "rate", cfg.SampleRate, "channels", cfg.Channels)
	return c, nil
}

func (c *Command) pump(stdout io.Reader) {
	defer close(c.done)
	reader := bufio.NewReaderSize(stdout, 64*1024)
	frameBytes := 4 * int(c.cfg.Channels)
	buf := make([]byte, c.cfg.ChunkFrames*frameBytes)
	for {
		n, err := io.ReadFull(reader, buf)
		// keep whole frames only
		n -= n % frameBytes
		if n > 0 {
			samples := make([]float32, n/4)
			for i := range samples {
				samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
			}
			c.delivery.Deliver(samples)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, os.ErrClosed) {
				c.logger.Warnw("Capture command read failed", "command", c.cfg.Name, "error", err)
			}
			return
		}
	}
}

// Stop interrupts the process, escalating to kill after StopTimeout, and
// waits for the output pump to drain.
func (c *Command) Stop() error {
	c.stopOnce.Do(func() {
		if err := c.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			c.stopErr = err
		}
		select {
		case <-c.done:
		case <-time.After(c.cfg.StopTimeout):
			c.logger.Warnw("Capture command did not exit, killing", "command", c.cfg.Name)
			_ = c.cmd.Process.Kill()
			<-c.done
		}
		// interrupted recorders exit non-zero; that is the normal path here
		_ = c.cmd.Wait()
	})
	return c.stopErr
}

func (c *Command) SampleRate() uint32 { return c.cfg.SampleRate }

func (c *Command) Channels() uint32 { return c.cfg.Channels }

// CommandOpener opens a Command source per session. Per-process taps are not
// available to an external recorder.
func CommandOpener(logger commons.Logger, cfg CommandConfig) internal_type.CaptureOpener {
	return func(ctx context.Context, opts internal_type.CaptureOptions, delivery internal_type.AudioDelivery) (internal_type.CaptureSource, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.AppProcessID != nil {
			return nil, internal_type.NewUnsupportedPlatformError()
		}
		if len(opts.ExcludeProcessIDs) > 0 {
			logger.Warnw("Process exclusion is not supported by the capture command, ignoring", "excluded", opts.ExcludeProcessIDs)
		}
		c := cfg
		if opts.SampleRate != nil && *opts.SampleRate > 0 {
			c.SampleRate = *opts.SampleRate
		}
		return StartCommand(logger, c, delivery)
	}
}
