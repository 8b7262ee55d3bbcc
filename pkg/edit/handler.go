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

package edit

import (
	"expvar"
	"fmt"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/proc"
	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
	log "github.com/sirupsen/logrus"
)

var (
	editsApplied = expvar.NewInt("edit.writes.applied")
	editFaults   = expvar.NewInt("edit.writes.faults")
)

// Handler applies memory edit requests against virtual or physical address
// space. All work happens synchronously on the calling thread: the request
// blocks its caller until the whole edit completes or fails.
type Handler struct {
	kernel proc.Kernel
}

// NewHandler builds an edit handler backed by the given kernel.
func NewHandler(kernel proc.Kernel) *Handler {
	return &Handler{kernel: kernel}
}

// Handle decodes the raw request envelope arriving from the device-control
// boundary and applies it. Structural violations are rejected before any
// memory access occurs.
func (h *Handler) Handle(b []byte) error {
	r, err := Decode(b)
	if err != nil {
		return err
	}
	return h.Apply(r)
}

// Apply performs the memory edit. For each value slot, the low element-width
// bytes are written at address + i*width, advancing sequentially and
// contiguously. The slots travel as 8-byte quantities no matter the declared
// width, so discarding the high bytes is the protocol's contract, not a bug.
//
// The first faulting write aborts the request with ErrWriteFault. Writes
// already applied are not rolled back: partial application on fault is a
// documented outcome.
func (h *Handler) Apply(r *Request) error {
	if err := r.validate(); err != nil {
		return err
	}

	log.Debugf("applying %d %s edit(s) of width %d at %#x pid %d",
		len(r.Values), r.Space, r.Width, r.Address, r.PID)

	space, release, err := h.resolveSpace(r)
	if err != nil {
		return err
	}
	defer release()

	for i, v := range r.Values {
		addr := r.Address + uint64(i)*uint64(r.Width)
		if err := space.WriteAt(addr, truncate(v, r.Width)); err != nil {
			editFaults.Add(1)
			return fmt.Errorf("%w: %#x: %v", kerrors.ErrWriteFault, addr, err)
		}
		editsApplied.Add(1)
	}

	return nil
}

// resolveSpace attaches to the address space the request targets. Physical
// addressing is process-agnostic, so the process id is not even looked up.
// The returned release func detaches the space and drops the process
// reference on every exit path.
func (h *Handler) resolveSpace(r *Request) (mem.AddressSpace, func(), error) {
	if r.Space == SpacePhysical {
		space, err := h.kernel.PhysicalSpace()
		if err != nil {
			return nil, nil, err
		}
		return space, func() { _ = space.Detach() }, nil
	}

	p, err := h.kernel.OpenProcess(r.PID)
	if err != nil {
		return nil, nil, err
	}
	space, err := p.Attach()
	if err != nil {
		p.Release()
		return nil, nil, err
	}
	return space, func() {
		_ = space.Detach()
		p.Release()
	}, nil
}

// truncate renders the low-order width bytes of the slot value in machine
// order, exactly as a register store of that width would.
func truncate(v uint64, width uint32) []byte {
	switch width {
	case 1:
		return []byte{byte(v)}
	case 4:
		return bytes.WriteUint32(uint32(v))
	default:
		return bytes.WriteUint64(v)
	}
}
