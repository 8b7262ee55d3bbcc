/*
 * Copyright 2022-2024 by Kvasir Project Authors
 * https://kvasirlabs.github.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utf16

import (
	"unicode/utf8"

	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
)

const (
	// 0xd800-0xdc00 encodes the high 10 bits of a pair.
	surr1 = 0xd800
	// 0xdc00-0xe000 encodes the low 10 bits of a pair.
	surr2 = 0xdc00
)

func isHighSurrogate(r rune) bool { return r >= surr1 && r <= 0xdbff }
func isLowSurrogate(r rune) bool  { return r >= surr2 && r <= 0xdfff }

// Decode decodes the UTF16-encoded string to UTF-8 string. This function
// exhibits much better performance than the standard library counterpart.
// All credits go to: https://gist.github.com/skeeto/09f1410183d246f9b18cba95c4e602f0
func Decode(p []uint16) string {
	s := make([]byte, 0, 2*len(p))
	for i := 0; i < len(p); i++ {
		r := rune(0xfffd)
		r1 := rune(p[i])
		if isHighSurrogate(r1) {
			if i+1 < len(p) {
				r2 := rune(p[i+1])
				if isLowSurrogate(r2) {
					i++
					r = 0x10000 + (r1-surr1)<<10 + (r2 - surr2)
				}
			}
		} else if !isLowSurrogate(r) {
			r = r1
		}
		s = utf8.AppendRune(s, r)
	}
	return string(s)
}

// DecodeBytes interprets the raw byte buffer as a sequence of UTF-16 code
// units in machine order and decodes them to a UTF-8 string. Wide-character
// buffers read out of a foreign process address space arrive as raw bytes,
// so a trailing odd byte is dropped.
func DecodeBytes(b []byte) string {
	n := len(b) / 2
	p := make([]uint16, n)
	for i := 0; i < n; i++ {
		p[i] = bytes.ReadUint16(b[i*2:])
	}
	return Decode(p)
}

// Encode converts the string to a UTF-16 code unit sequence rendered as
// raw bytes in machine order. It is the inverse of DecodeBytes for strings
// within the Basic Multilingual Plane.
func Encode(s string) []byte {
	b := make([]byte, 0, 2*len(s))
	for _, r := range s {
		if r >= 0x10000 {
			r1 := surr1 + (r-0x10000)>>10
			r2 := surr2 + (r-0x10000)&0x3ff
			b = append(b, bytes.WriteUint16(uint16(r1))...)
			b = append(b, bytes.WriteUint16(uint16(r2))...)
			continue
		}
		b = append(b, bytes.WriteUint16(uint16(r))...)
	}
	return b
}
