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
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// virtualSpace addresses the user-mode address space of a foreign process
// through its open handle. The handle is owned by the process descriptor,
// detaching the space does not close it.
type virtualSpace struct {
	proc windows.Handle
}

// NewVirtualSpace returns an address space bound to the given process handle.
func NewVirtualSpace(proc windows.Handle) AddressSpace {
	return &virtualSpace{proc: proc}
}

func (v *virtualSpace) ReadAt(addr uint64, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	var n uintptr
	err := windows.ReadProcessMemory(v.proc, uintptr(addr), &b[0], uintptr(len(b)), &n)
	if err != nil {
		return errors.Wrapf(err, "unable to read %d bytes at %#x", len(b), addr)
	}
	if n != uintptr(len(b)) {
		return errors.Errorf("short read at %#x: %d of %d bytes", addr, n, len(b))
	}
	return nil
}

func (v *virtualSpace) WriteAt(addr uint64, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	var n uintptr
	err := windows.WriteProcessMemory(v.proc, uintptr(addr), &b[0], uintptr(len(b)), &n)
	if err != nil {
		return errors.Wrapf(err, "unable to write %d bytes at %#x", len(b), addr)
	}
	if n != uintptr(len(b)) {
		return errors.Errorf("short write at %#x: %d of %d bytes", addr, n, len(b))
	}
	return nil
}

func (v *virtualSpace) Detach() error { return nil }
