// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_ogg

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	internal_audio "github.com/rapidaai/media-capture/api/recording-api/internal/audio"
)

// ProbeResult summarises a written Ogg Opus file.
type ProbeResult struct {
	Version      uint8  `json:"version"`
	Channels     uint8  `json:"channels"`
	PreSkip      uint16 `json:"preSkip"`
	SampleRate   uint32 `json:"sampleRate"`
	OutputGain   uint16 `json:"outputGain"`
	ChannelMap   uint8  `json:"channelMap"`
	Vendor       string `json:"vendor"`
	Comments     uint32 `json:"comments"`
	Pages        int    `json:"pages"`
	FinalGranule uint64 `json:"finalGranule"`
	DurationMs   int64  `json:"durationMs"`
	EndOfStream  bool   `json:"endOfStream"`
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Probe reads every page of the file at path, verifying page checksums, and
// reports the stream headers and the final granule position.
func Probe(path string) (*ProbeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	counter := &countingReader{r: f}
	reader, head, err := oggreader.NewWith(counter)
	if err != nil {
		return nil, fmt.Errorf("read identification header: %w", err)
	}
	result := &ProbeResult{
		Version:    head.Version,
		Channels:   head.Channels,
		PreSkip:    head.PreSkip,
		SampleRate: head.SampleRate,
		OutputGain: head.OutputGain,
		ChannelMap: head.ChannelMap,
		Pages:      1,
	}

	tags, _, err := reader.ParseNextPage()
	if err != nil {
		return nil, fmt.Errorf("read comment header: %w", err)
	}
	result.Pages++
	if result.Vendor, result.Comments, err = ParseOpusTags(tags); err != nil {
		return nil, err
	}

	lastPage := int64(-1)
	for {
		offset := counter.n
		_, page, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", result.Pages, err)
		}
		result.Pages++
		lastPage = offset
		if page.GranulePosition != noGranule {
			result.FinalGranule = page.GranulePosition
		}
	}

	if lastPage >= 0 {
		flags := make([]byte, 1)
		if _, err := f.ReadAt(flags, lastPage+5); err != nil {
			return nil, err
		}
		result.EndOfStream = flags[0]&headerTypeEOS != 0
	}
	if result.FinalGranule > uint64(result.PreSkip) {
		result.DurationMs = internal_audio.DurationMs(result.FinalGranule - uint64(result.PreSkip))
	}
	return result, nil
}
