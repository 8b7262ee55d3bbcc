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

package hex

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize strips the recognized hex notations (0x, 0X, \x, \X, x, X prefixes)
// and the backtick digit group separator commonly used in debugger addresses,
// e.g. fffff807`7356f010.
func Normalize(s string) string {
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"),
		strings.HasPrefix(s, `\x`), strings.HasPrefix(s, `\X`):
		s = s[2:]
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s = s[1:]
	}
	return strings.ReplaceAll(s, "`", "")
}

// ParseUint64 parses the hex token into an unsigned 64-bit value.
func ParseUint64(s string) (uint64, error) {
	v, err := strconv.ParseUint(Normalize(s), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}

// ParseValue parses the hex token and enforces the digit limit imposed by the
// element width: 2 digits for a byte, 8 for a dword, 16 for a qword. A token
// exceeding the limit is rejected outright rather than truncated.
func ParseValue(s string, width uint32) (uint64, error) {
	t := Normalize(s)
	if len(t) > int(width)*2 {
		return 0, fmt.Errorf("value %q exceeds %d hex digits", s, width*2)
	}
	v, err := strconv.ParseUint(t, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}
