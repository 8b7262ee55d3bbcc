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

package mem

import (
	"fmt"

	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
)

// AddressSpace gives scoped access to a single memory space, either the
// virtual address space of an attached process or the machine physical
// memory. The space is acquired by attaching and must be released with
// Detach on every exit path. Attachment state is bound to the acquiring
// goroutine's call frame and is not reentrant: don't attach to a second
// process while a previous space is still undetached.
type AddressSpace interface {
	// ReadAt fills the buffer with len(b) bytes starting at the given address.
	ReadAt(addr uint64, b []byte) error
	// WriteAt stores len(b) bytes starting at the given address.
	WriteAt(addr uint64, b []byte) error
	// Detach releases the mapping. It is idempotent and its failure
	// never masks the error of the operation that used the space.
	Detach() error
}

// ReadPointer reads a pointer-sized field at the given address and widens it
// to 64 bits. Narrow (4-byte) pointers are zero-extended, never sign-extended:
// a compatibility-mode pointer with the high bit set is still a positive
// 32-bit virtual address.
func ReadPointer(space AddressSpace, addr uint64, width uint32) (uint64, error) {
	switch width {
	case 4:
		b := make([]byte, 4)
		if err := space.ReadAt(addr, b); err != nil {
			return 0, err
		}
		return uint64(bytes.ReadUint32(b)), nil
	case 8:
		b := make([]byte, 8)
		if err := space.ReadAt(addr, b); err != nil {
			return 0, err
		}
		return bytes.ReadUint64(b), nil
	default:
		return 0, fmt.Errorf("invalid pointer width: %d", width)
	}
}

// ReadUint16 reads a 16-bit field at the given address.
func ReadUint16(space AddressSpace, addr uint64) (uint16, error) {
	b := make([]byte, 2)
	if err := space.ReadAt(addr, b); err != nil {
		return 0, err
	}
	return bytes.ReadUint16(b), nil
}
