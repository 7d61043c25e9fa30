// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_ogg

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	pageHeaderSignature = "OggS"
	pageHeaderSize      = 27
	maxSegments         = 255
	maxSegmentSize      = 255

	headerTypeContinued = 0x01
	headerTypeBOS       = 0x02
	headerTypeEOS       = 0x04

	// granule of a page on which no packet completes
	noGranule = ^uint64(0)
)

// EndInfo tells WritePacket what to do with the page after the packet.
type EndInfo int

const (
	// NormalPacket leaves the page open for more packets.
	NormalPacket EndInfo = iota
	// EndPage flushes the page after this packet.
	EndPage
	// EndStream flushes the page and marks it as the last of the stream.
	EndStream
)

// PacketWriter lays packets of one logical stream out into Ogg pages.
// Packets are gathered on the current page until it runs out of lacing
// values or the caller ends the page. Not safe for concurrent use.
type PacketWriter struct {
	w      io.Writer
	serial uint32

	sequence  uint32
	started   bool
	finished  bool
	continued bool // next page starts with the tail of a packet

	lacing []byte
	body   []byte
	// granule of the last packet completed on the current page
	granule uint64
}

// NewPacketWriter writes pages for the stream identified by serial.
func NewPacketWriter(w io.Writer, serial uint32) *PacketWriter {
	return &PacketWriter{
		w:       w,
		serial:  serial,
		lacing:  make([]byte, 0, maxSegments),
		granule: noGranule,
	}
}

// Serial is the stream serial number written on every page.
func (p *PacketWriter) Serial() uint32 { return p.serial }

// PagesWritten counts pages flushed so far.
func (p *PacketWriter) PagesWritten() uint32 { return p.sequence }

// WritePacket appends packet with the granule position reached at its end.
func (p *PacketWriter) WritePacket(packet []byte, granule uint64, end EndInfo) error {
	if p.finished {
		return fmt.Errorf("ogg stream %d already ended", p.serial)
	}

	// A packet is laced as len/255 full segments plus one terminating
	// segment shorter than 255 (possibly zero).
	remaining := packet
	spanning := false
	for {
		if len(p.lacing) == maxSegments {
			if err := p.flush(false); err != nil {
				return err
			}
			p.continued = spanning
		}
		n := len(remaining)
		if n > maxSegmentSize {
			n = maxSegmentSize
		}
		p.lacing = append(p.lacing, byte(n))
		p.body = append(p.body, remaining[:n]...)
		remaining = remaining[n:]
		if n < maxSegmentSize {
			break
		}
		spanning = true
	}
	p.granule = granule

	switch end {
	case EndPage:
		return p.flush(false)
	case EndStream:
		p.finished = true
		return p.flush(true)
	}
	return nil
}

func (p *PacketWriter) flush(eos bool) error {
	var headerType byte
	if p.continued {
		headerType |= headerTypeContinued
	}
	if !p.started {
		headerType |= headerTypeBOS
	}
	if eos {
		headerType |= headerTypeEOS
	}

	page := make([]byte, pageHeaderSize+len(p.lacing)+len(p.body))
	copy(page[0:], pageHeaderSignature)
	page[4] = 0 // version
	page[5] = headerType
	binary.LittleEndian.PutUint64(page[6:], p.granule)
	binary.LittleEndian.PutUint32(page[14:], p.serial)
	binary.LittleEndian.PutUint32(page[18:], p.sequence)
	// checksum at 22:26 is computed over the page with the field zeroed
	page[26] = byte(len(p.lacing))
	copy(page[pageHeaderSize:], p.lacing)
	copy(page[pageHeaderSize+len(p.lacing):], p.body)
	binary.LittleEndian.PutUint32(page[22:], checksum(page))

	if _, err := p.w.Write(page); err != nil {
		return fmt.Errorf("write ogg page %d: %w", p.sequence, err)
	}

	p.started = true
	p.continued = false
	p.sequence++
	p.lacing = p.lacing[:0]
	p.body = p.body[:0]
	p.granule = noGranule
	return nil
}
