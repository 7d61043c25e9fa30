// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_ogg

// Ogg uses CRC-32 with polynomial 0x04c11db7, no reflection, zero initial
// value and no final xor.
var crcTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

func checksum(b []byte) uint32 {
	var crc uint32
	for _, v := range b {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^v]
	}
	return crc
}
