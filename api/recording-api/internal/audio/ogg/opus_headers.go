// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_ogg

import (
	"encoding/binary"
	"errors"
)

const (
	opusHeadSignature = "OpusHead"
	opusTagsSignature = "OpusTags"
	opusHeadLength    = 19
)

// OpusHead builds the 19 byte identification packet: version 1, zero
// pre-skip, zero output gain, channel mapping family 0.
func OpusHead(channels uint8, sampleRate uint32) []byte {
	head := make([]byte, opusHeadLength)
	copy(head[0:], opusHeadSignature)
	head[8] = 1
	head[9] = channels
	binary.LittleEndian.PutUint16(head[10:], 0)
	binary.LittleEndian.PutUint32(head[12:], sampleRate)
	binary.LittleEndian.PutUint16(head[16:], 0)
	head[18] = 0
	return head
}

// OpusTags builds the comment packet with an empty comment list.
func OpusTags(vendor string) []byte {
	tags := make([]byte, 0, 8+4+len(vendor)+4)
	tags = append(tags, opusTagsSignature...)
	tags = binary.LittleEndian.AppendUint32(tags, uint32(len(vendor)))
	tags = append(tags, vendor...)
	tags = binary.LittleEndian.AppendUint32(tags, 0)
	return tags
}

// ParseOpusTags returns the vendor string and comment count.
func ParseOpusTags(b []byte) (string, uint32, error) {
	if len(b) < 16 || string(b[:8]) != opusTagsSignature {
		return "", 0, errors.New("not an OpusTags packet")
	}
	vendorLen := int(binary.LittleEndian.Uint32(b[8:12]))
	if len(b) < 12+vendorLen+4 {
		return "", 0, errors.New("truncated OpusTags packet")
	}
	vendor := string(b[12 : 12+vendorLen])
	count := binary.LittleEndian.Uint32(b[12+vendorLen:])
	return vendor, count, nil
}
