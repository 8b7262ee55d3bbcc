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
	"errors"

	"github.com/kvasirlabs/kvasir/pkg/mem"
)

// Mode designates the execution mode of the target process. The mode decides
// which process descriptor layout the loader walk consults.
type Mode uint8

const (
	// ModeNative identifies a process running at the full machine pointer width
	ModeNative Mode = iota
	// ModeCompat identifies a process running under the 32-bit compatibility layer
	ModeCompat
)

// String returns the mode designation.
func (m Mode) String() string {
	if m == ModeCompat {
		return "compat"
	}
	return "native"
}

// ErrLengthMismatch is the status the zero-length image query is required to
// report. It carries the buffer size needed for the full information block.
// Any other status from the probe is a query failure.
var ErrLengthMismatch = errors.New("info length mismatch")

// Caps is the process-wide capability table. Unexported kernel accessors are
// resolved exactly once during initialization and consumers query the table
// read-only on every call, so a degraded environment consistently reports
// failure instead of guessing.
type Caps struct {
	// ImageQuery designates the image path information accessor.
	ImageQuery bool
	// PebProbe designates the native process descriptor accessor.
	PebProbe bool
	// Wow64Probe designates the compatibility-mode process descriptor accessor.
	Wow64Probe bool
}

// Kernel is the gateway to the kernel facilities the engine builds upon. The
// live implementation fronts the Windows kernel, while tests plug in synthetic
// kernels with scripted processes and address spaces.
type Kernel interface {
	// OpenProcess references the process control object designated by the id.
	// The returned process holds a single reference that the caller owns for
	// the duration of one operation and must drop via Release on every exit
	// path.
	OpenProcess(pid uint32) (Process, error)
	// PhysicalSpace maps the machine physical memory. Physical addressing is
	// process-agnostic, so no process context is involved.
	PhysicalSpace() (mem.AddressSpace, error)
	// Caps returns the accessor capability table.
	Caps() Caps
}

// Process is a transient, reference-counted handle to a process control
// object.
type Process interface {
	// ID returns the process identifier.
	ID() uint32
	// Peb probes the native process descriptor. A zero address means the
	// process has no native user-mode descriptor.
	Peb() (uint64, error)
	// Wow64Peb probes the compatibility-mode process descriptor. A zero
	// address means the process doesn't run under the compatibility layer.
	Wow64Peb() (uint64, error)
	// QueryImage performs the image path information query. When buf is nil
	// the query reports the required block size through ErrLengthMismatch.
	// A filled block starts with the 16-byte string descriptor header
	// followed by the wide-character path payload.
	QueryImage(buf []byte) (uint32, error)
	// Attach maps the process virtual address space for the calling thread.
	// The returned space must be detached on every exit path.
	Attach() (mem.AddressSpace, error)
	// Release drops the process object reference.
	Release()
}

// imageDescriptorSize is the size of the length-prefixed string descriptor
// header preceding the path payload in the image information block.
const imageDescriptorSize = 16
