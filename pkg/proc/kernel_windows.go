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

package proc

import (
	"unsafe"

	"golang.org/x/sys/windows"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/sys"
)

// procAccess is the access mask requested for every process open. Queries,
// descriptor probes and address space accesses all run against the same
// handle, so the full set is requested upfront.
const procAccess = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION

// winKernel fronts the live Windows kernel.
type winKernel struct {
	caps Caps
}

// NewKernel returns the kernel gateway backed by the running system.
func NewKernel() Kernel {
	c := sys.Capabilities()
	// the three probes all ride on the process information accessor
	return &winKernel{
		caps: Caps{
			ImageQuery: c.HasQueryInformationProcess(),
			PebProbe:   c.HasQueryInformationProcess(),
			Wow64Probe: c.HasQueryInformationProcess(),
		},
	}
}

func (k *winKernel) Caps() Caps { return k.caps }

func (k *winKernel) OpenProcess(pid uint32) (Process, error) {
	h, err := windows.OpenProcess(procAccess, false, pid)
	if err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return nil, kerrors.ErrProcessNotFound
		}
		return nil, err
	}
	return &winProcess{pid: pid, handle: h}, nil
}

func (k *winKernel) PhysicalSpace() (mem.AddressSpace, error) {
	if !sys.Capabilities().HasPhysicalSection() {
		return nil, kerrors.ErrUnsupportedRuntime
	}
	return mem.NewPhysicalSpace()
}

// winProcess wraps an open process handle.
type winProcess struct {
	pid    uint32
	handle windows.Handle
}

func (p *winProcess) ID() uint32 { return p.pid }

func (p *winProcess) Peb() (uint64, error) {
	var info sys.BasicInformation
	var n uint32
	err := sys.NtQueryInformationProcess(p.handle, sys.ProcessBasicInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), &n)
	if err != nil {
		return 0, err
	}
	return uint64(info.PebBaseAddress), nil
}

func (p *winProcess) Wow64Peb() (uint64, error) {
	var peb uintptr
	var n uint32
	err := sys.NtQueryInformationProcess(p.handle, sys.ProcessWow64InformationClass, unsafe.Pointer(&peb), uint32(unsafe.Sizeof(peb)), &n)
	if err != nil {
		return 0, err
	}
	return uint64(peb), nil
}

func (p *winProcess) QueryImage(buf []byte) (uint32, error) {
	var base unsafe.Pointer
	if len(buf) > 0 {
		base = unsafe.Pointer(&buf[0])
	}
	var n uint32
	err := sys.NtQueryInformationProcess(p.handle, sys.ProcessImageFileNameClass, base, uint32(len(buf)), &n)
	if err == windows.STATUS_INFO_LENGTH_MISMATCH {
		return n, ErrLengthMismatch
	}
	return n, err
}

func (p *winProcess) Attach() (mem.AddressSpace, error) {
	return mem.NewVirtualSpace(p.handle), nil
}

func (p *winProcess) Release() {
	_ = windows.CloseHandle(p.handle)
}
