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

package loader

import (
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/proc"
	"github.com/kvasirlabs/kvasir/pkg/util/utf16"
)

// layout is the versioned offset table for one process descriptor variant.
// The descriptor is an undocumented kernel structure whose true shape differs
// by execution mode and address width, so the walk never interprets it as a
// typed record. All offset arithmetic is confined to this table and the
// field readers below: the native and compatibility walks share one
// traversal and can only diverge in these values.
type layout struct {
	// ptrWidth is the pointer width of the descriptor variant. Narrow
	// pointers are zero-extended to 64 bits at the read site.
	ptrWidth uint32
	// ldr locates the loader-data pointer inside the descriptor
	ldr uint64
	// inLoadOrder locates the load-order list head inside the loader data
	inLoadOrder uint64
	// offsets of the module entry fields, relative to the entry's
	// load-order links. The links sit at offset zero, so a list node
	// address is also the entry address.
	dllBase     uint64
	entryPoint  uint64
	sizeOfImage uint64
	fullName    uint64
	baseName    uint64
	// strBuffer locates the character pointer inside the length-prefixed
	// string descriptor
	strBuffer uint64
}

var layouts = map[proc.Mode]layout{
	proc.ModeNative: {
		ptrWidth:    8,
		ldr:         0x18,
		inLoadOrder: 0x10,
		dllBase:     0x30,
		entryPoint:  0x38,
		sizeOfImage: 0x40,
		fullName:    0x48,
		baseName:    0x58,
		strBuffer:   0x08,
	},
	proc.ModeCompat: {
		ptrWidth:    4,
		ldr:         0x0c,
		inLoadOrder: 0x0c,
		dllBase:     0x18,
		entryPoint:  0x1c,
		sizeOfImage: 0x20,
		fullName:    0x24,
		baseName:    0x2c,
		strBuffer:   0x04,
	},
}

// readString reads the length-prefixed wide-character string descriptor at
// the given address and decodes the characters from the target address space.
func (l layout) readString(space mem.AddressSpace, addr uint64) (string, error) {
	length, err := mem.ReadUint16(space, addr)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	buffer, err := mem.ReadPointer(space, addr+l.strBuffer, l.ptrWidth)
	if err != nil {
		return "", err
	}
	if buffer == 0 {
		return "", nil
	}
	b := make([]byte, length)
	if err := space.ReadAt(buffer, b); err != nil {
		return "", err
	}
	return utf16.DecodeBytes(b), nil
}

// readPointer reads a pointer-width field of the module entry.
func (l layout) readPointer(space mem.AddressSpace, addr uint64) (uint64, error) {
	return mem.ReadPointer(space, addr, l.ptrWidth)
}
