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

package sys

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Process information classes consumed by the engine.
const (
	// ProcessBasicInformationClass yields the native process descriptor address
	ProcessBasicInformationClass int32 = 0
	// ProcessWow64InformationClass yields the compatibility-mode descriptor address
	ProcessWow64InformationClass int32 = 26
	// ProcessImageFileNameClass yields the length-prefixed image path block
	ProcessImageFileNameClass int32 = 27
)

// Section access rights for the physical memory section object.
const (
	SectionMapRead  uint32 = 0x0004
	SectionMapWrite uint32 = 0x0002
)

// UnicodeString mirrors the UNICODE_STRING layout: a length-prefixed, not
// necessarily NUL-terminated wide-character buffer.
type UnicodeString struct {
	Length        uint16
	MaximumLength uint16
	Buffer        *uint16
}

// BasicInformation mirrors the PROCESS_BASIC_INFORMATION block returned for
// the basic information class. Only the descriptor address is consumed, the
// remaining fields are carried for layout fidelity.
type BasicInformation struct {
	ExitStatus                   uintptr
	PebBaseAddress               uintptr
	AffinityMask                 uintptr
	BasePriority                 uintptr
	UniqueProcessID              uintptr
	InheritedFromUniqueProcessID uintptr
}

var (
	ntdll = windows.NewLazySystemDLL("ntdll.dll")

	procNtQueryInformationProcess = ntdll.NewProc("NtQueryInformationProcess")
	procNtOpenSection             = ntdll.NewProc("NtOpenSection")
	procNtMapViewOfSection        = ntdll.NewProc("NtMapViewOfSection")
	procNtUnmapViewOfSection      = ntdll.NewProc("NtUnmapViewOfSection")
)

// Caps is the process-wide accessor capability table. The entry points the
// engine depends on are undocumented or unexported, so each one is resolved
// exactly once when the package initializes. Consumers query the table on
// every call and treat an absent entry as a hard capability error, never as
// an invitation to invoke an unresolved procedure.
type Caps struct {
	queryInformationProcess bool
	physicalSection         bool
}

var caps Caps

func init() {
	caps = Caps{
		queryInformationProcess: procNtQueryInformationProcess.Find() == nil,
		physicalSection: procNtOpenSection.Find() == nil &&
			procNtMapViewOfSection.Find() == nil &&
			procNtUnmapViewOfSection.Find() == nil,
	}
}

// Capabilities returns the resolved accessor table.
func Capabilities() Caps { return caps }

// HasQueryInformationProcess designates the process information accessor.
func (c Caps) HasQueryInformationProcess() bool { return c.queryInformationProcess }

// HasPhysicalSection designates the section accessors backing physical memory mapping.
func (c Caps) HasPhysicalSection() bool { return c.physicalSection }

// NtQueryInformationProcess invokes the process information accessor. A
// non-success status surfaces as windows.NTStatus, which callers compare
// against the expected probe statuses.
func NtQueryInformationProcess(proc windows.Handle, class int32, info unsafe.Pointer, size uint32, retLen *uint32) error {
	status, _, _ := procNtQueryInformationProcess.Call(
		uintptr(proc),
		uintptr(class),
		uintptr(info),
		uintptr(size),
		uintptr(unsafe.Pointer(retLen)),
	)
	if status != 0 {
		return windows.NTStatus(status)
	}
	return nil
}

// NtOpenSection opens the named kernel section object, e.g.
// \Device\PhysicalMemory.
func NtOpenSection(name string, access uint32) (windows.Handle, error) {
	objName, err := windows.NewNTUnicodeString(name)
	if err != nil {
		return 0, err
	}
	oa := &windows.OBJECT_ATTRIBUTES{
		ObjectName: objName,
		Attributes: windows.OBJ_CASE_INSENSITIVE,
	}
	oa.Length = uint32(unsafe.Sizeof(*oa))

	var h windows.Handle
	status, _, _ := procNtOpenSection.Call(
		uintptr(unsafe.Pointer(&h)),
		uintptr(access),
		uintptr(unsafe.Pointer(oa)),
	)
	if status != 0 {
		return 0, windows.NTStatus(status)
	}
	return h, nil
}

// NtMapViewOfSection maps the section range starting at the given offset
// into the calling process and returns the view base and the mapped size.
func NtMapViewOfSection(section windows.Handle, offset uint64, size uintptr, protect uint32) (uintptr, uintptr, error) {
	var base uintptr
	viewSize := size
	off := offset
	// ViewShare
	const inheritDisposition = 1
	status, _, _ := procNtMapViewOfSection.Call(
		uintptr(section),
		uintptr(windows.CurrentProcess()),
		uintptr(unsafe.Pointer(&base)),
		0,
		0,
		uintptr(unsafe.Pointer(&off)),
		uintptr(unsafe.Pointer(&viewSize)),
		inheritDisposition,
		0,
		uintptr(protect),
	)
	if status != 0 {
		return 0, 0, windows.NTStatus(status)
	}
	return base, viewSize, nil
}

// NtUnmapViewOfSection releases the mapped view.
func NtUnmapViewOfSection(base uintptr) error {
	status, _, _ := procNtUnmapViewOfSection.Call(
		uintptr(windows.CurrentProcess()),
		base,
	)
	if status != 0 {
		return windows.NTStatus(status)
	}
	return nil
}
