//go:build windows
// +build windows

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
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/kvasirlabs/kvasir/pkg/sys"
)

// physicalSectionName is the kernel object exposing raw physical memory.
const physicalSectionName = `\Device\PhysicalMemory`

// viewGranularity is the section offset alignment the mapper demands.
const viewGranularity = 0x10000

// physicalSpace addresses raw physical memory by mapping short-lived views
// of the physical memory section around each accessed range.
type physicalSpace struct {
	section windows.Handle
}

// NewPhysicalSpace opens the physical memory section. The caller needs the
// privileges of a highly trusted account for the open to succeed.
func NewPhysicalSpace() (AddressSpace, error) {
	section, err := sys.NtOpenSection(physicalSectionName, sys.SectionMapRead|sys.SectionMapWrite)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open the %s section", physicalSectionName)
	}
	return &physicalSpace{section: section}, nil
}

func (p *physicalSpace) ReadAt(addr uint64, b []byte) error {
	return p.access(addr, b, func(view []byte) { copy(b, view) })
}

func (p *physicalSpace) WriteAt(addr uint64, b []byte) error {
	return p.access(addr, b, func(view []byte) { copy(view, b) })
}

// access maps a view covering the requested range, hands the exact window to
// the transfer function and tears the view down again.
func (p *physicalSpace) access(addr uint64, b []byte, transfer func(view []byte)) error {
	if len(b) == 0 {
		return nil
	}
	offset := addr &^ uint64(viewGranularity-1)
	delta := uintptr(addr - offset)
	base, size, err := sys.NtMapViewOfSection(p.section, offset, delta+uintptr(len(b)), windows.PAGE_READWRITE)
	if err != nil {
		return errors.Wrapf(err, "unable to map %d bytes of physical memory at %#x", len(b), addr)
	}
	defer func() {
		_ = sys.NtUnmapViewOfSection(base)
	}()
	if size < delta+uintptr(len(b)) {
		return errors.Errorf("short physical view at %#x: %d of %d bytes", addr, size-delta, len(b))
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(base+delta)), len(b))
	transfer(view)
	return nil
}

func (p *physicalSpace) Detach() error {
	return windows.CloseHandle(p.section)
}
