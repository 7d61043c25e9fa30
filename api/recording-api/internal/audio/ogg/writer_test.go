// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawPage struct {
	headerType byte
	granule    uint64
	serial     uint32
	sequence   uint32
	lacing     []byte
	body       []byte
}

func splitPages(t *testing.T, b []byte) []rawPage {
	t.Helper()
	var pages []rawPage
	for len(b) > 0 {
		require.GreaterOrEqual(t, len(b), pageHeaderSize)
		require.Equal(t, pageHeaderSignature, string(b[:4]))
		n := int(b[26])
		lacing := b[pageHeaderSize : pageHeaderSize+n]
		size := 0
		for _, l := range lacing {
			size += int(l)
		}
		end := pageHeaderSize + n + size
		pages = append(pages, rawPage{
			headerType: b[5],
			granule:    binary.LittleEndian.Uint64(b[6:]),
			serial:     binary.LittleEndian.Uint32(b[14:]),
			sequence:   binary.LittleEndian.Uint32(b[18:]),
			lacing:     lacing,
			body:       b[pageHeaderSize+n : end],
		})
		b = b[end:]
	}
	return pages
}

func writeHeaders(t *testing.T, w *PacketWriter, channels uint8) {
	t.Helper()
	require.NoError(t, w.WritePacket(OpusHead(channels, 48000), 0, EndPage))
	require.NoError(t, w.WritePacket(OpusTags("unit"), 0, EndPage))
}

func TestOpusHead_Layout(t *testing.T) {
	head := OpusHead(2, 48000)
	require.Len(t, head, 19)
	assert.Equal(t, "OpusHead", string(head[:8]))
	assert.Equal(t, byte(1), head[8])
	assert.Equal(t, byte(2), head[9])
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(head[10:]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(head[12:]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(head[16:]))
	assert.Equal(t, byte(0), head[18])
}

func TestOpusTags_RoundTrip(t *testing.T) {
	vendor, count, err := ParseOpusTags(OpusTags("Rapida"))
	require.NoError(t, err)
	assert.Equal(t, "Rapida", vendor)
	assert.Equal(t, uint32(0), count)

	_, _, err = ParseOpusTags([]byte("OpusHead"))
	assert.Error(t, err)
}

func TestPacketWriter_HeaderPagesReadableByOggReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketWriter(&buf, 0xCAFE)
	writeHeaders(t, w, 1)
	require.NoError(t, w.WritePacket([]byte{0xAA, 0xBB}, 960, NormalPacket))
	require.NoError(t, w.WritePacket(nil, 960, EndStream))

	reader, head, err := oggreader.NewWith(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint8(1), head.Channels)
	assert.Equal(t, uint32(48000), head.SampleRate)
	assert.Equal(t, uint16(0), head.PreSkip)

	tags, _, err := reader.ParseNextPage()
	require.NoError(t, err)
	vendor, _, err := ParseOpusTags(tags)
	require.NoError(t, err)
	assert.Equal(t, "unit", vendor)

	_, page, err := reader.ParseNextPage()
	require.NoError(t, err)
	assert.Equal(t, uint64(960), page.GranulePosition)

	_, _, err = reader.ParseNextPage()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestPacketWriter_PageFlags(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketWriter(&buf, 7)
	writeHeaders(t, w, 2)
	require.NoError(t, w.WritePacket(make([]byte, 10), 960, NormalPacket))
	require.NoError(t, w.WritePacket(make([]byte, 12), 1920, NormalPacket))
	require.NoError(t, w.WritePacket(nil, 1920, EndStream))

	pages := splitPages(t, buf.Bytes())
	require.Len(t, pages, 3)

	assert.Equal(t, byte(headerTypeBOS), pages[0].headerType)
	assert.Equal(t, byte(0), pages[1].headerType)
	assert.Equal(t, byte(headerTypeEOS), pages[2].headerType)

	// both data packets and the empty end marker share the last page
	assert.Equal(t, []byte{10, 12, 0}, []byte(pages[2].lacing))
	assert.Equal(t, uint64(1920), pages[2].granule)
	for i, p := range pages {
		assert.Equal(t, uint32(7), p.serial)
		assert.Equal(t, uint32(i), p.sequence)
	}
	assert.Equal(t, uint32(3), w.PagesWritten())
}

func TestPacketWriter_LargePacketContinuesOnNextPage(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketWriter(&buf, 1)
	writeHeaders(t, w, 1)

	big := bytes.Repeat([]byte{0x5A}, 255*300+10)
	require.NoError(t, w.WritePacket(big, 960, EndStream))

	pages := splitPages(t, buf.Bytes())
	require.Len(t, pages, 4)

	first, second := pages[2], pages[3]
	assert.Len(t, first.lacing, 255)
	assert.Equal(t, noGranule, first.granule, "no packet completes on the first page")
	assert.Equal(t, byte(headerTypeContinued|headerTypeEOS), second.headerType)
	assert.Equal(t, uint64(960), second.granule)
	assert.Equal(t, big, append(append([]byte{}, first.body...), second.body...))
}

func TestPacketWriter_FullPageWithoutSpanningIsNotContinued(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketWriter(&buf, 1)
	writeHeaders(t, w, 1)

	for i := 0; i < 255; i++ {
		require.NoError(t, w.WritePacket([]byte{1}, uint64(i+1), NormalPacket))
	}
	require.NoError(t, w.WritePacket([]byte{2}, 256, EndStream))

	pages := splitPages(t, buf.Bytes())
	require.Len(t, pages, 4)
	assert.Equal(t, uint64(255), pages[2].granule)
	assert.Equal(t, byte(headerTypeEOS), pages[3].headerType)
}

func TestPacketWriter_RejectsWritesAfterEndOfStream(t *testing.T) {
	w := NewPacketWriter(io.Discard, 1)
	require.NoError(t, w.WritePacket(nil, 0, EndStream))
	assert.Error(t, w.WritePacket([]byte{1}, 1, NormalPacket))
}

func TestChecksum_KnownValue(t *testing.T) {
	// CRC-32/MPEG-2 style check value without the final xor for "123456789"
	assert.Equal(t, uint32(0x89a1897f), checksum([]byte("123456789")))
}

func TestProbe_ReportsStreamSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.opus")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewPacketWriter(f, 99)
	writeHeaders(t, w, 2)
	for i := 1; i <= 5; i++ {
		require.NoError(t, w.WritePacket([]byte{byte(i)}, uint64(i*960), EndPage))
	}
	require.NoError(t, w.WritePacket(nil, 4800, EndStream))
	require.NoError(t, f.Close())

	res, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), res.Channels)
	assert.Equal(t, uint32(48000), res.SampleRate)
	assert.Equal(t, "unit", res.Vendor)
	assert.Equal(t, 8, res.Pages)
	assert.Equal(t, uint64(4800), res.FinalGranule)
	assert.Equal(t, int64(100), res.DurationMs)
	assert.True(t, res.EndOfStream)
}
