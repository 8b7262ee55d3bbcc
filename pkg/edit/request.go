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
	"fmt"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
)

// Space selects the memory space an edit request targets.
type Space uint32

const (
	// SpaceVirtual addresses the virtual address space of the target process
	SpaceVirtual Space = iota
	// SpacePhysical addresses the machine physical memory, ignoring process context
	SpacePhysical
)

// String returns the space designation.
func (s Space) String() string {
	if s == SpacePhysical {
		return "physical"
	}
	return "virtual"
}

// HeaderSize is the size of the fixed request header on the wire: memory
// space and element width selectors, process id, target address, element
// count and the authoritative total structure size, packed in that order
// with no padding.
const HeaderSize = 28

// SlotSize is the wire size of one value slot. Values always travel as
// 8-byte quantities regardless of the declared element width.
const SlotSize = 8

// Request is the self-describing memory edit envelope built by the front
// end and consumed by the device-control handler. The fixed header is
// immediately followed by a variable number of 8-byte value slots, of which
// only the low element-width bytes are ever applied.
type Request struct {
	// Space selects virtual or physical addressing.
	Space Space
	// Width is the element width in bytes: 1, 4 or 8.
	Width uint32
	// PID designates the target process. Ignored for physical edits.
	PID uint32
	// Address is the first byte the edit applies to.
	Address uint64
	// Values holds one slot per edited element.
	Values []uint64
}

// NewRequest builds an edit request envelope.
func NewRequest(space Space, width uint32, pid uint32, addr uint64, values []uint64) *Request {
	return &Request{Space: space, Width: width, PID: pid, Address: addr, Values: values}
}

// validateSelectors checks the space and width selector fields.
func (r *Request) validateSelectors() error {
	if r.Space != SpaceVirtual && r.Space != SpacePhysical {
		return fmt.Errorf("%w: unknown memory space %d", kerrors.ErrMalformedRequest, r.Space)
	}
	if r.Width != 1 && r.Width != 4 && r.Width != 8 {
		return fmt.Errorf("%w: unsupported element width %d", kerrors.ErrMalformedRequest, r.Width)
	}
	return nil
}

// validate enforces the structural invariants shared by both wire decoding
// and direct in-process submission.
func (r *Request) validate() error {
	if err := r.validateSelectors(); err != nil {
		return err
	}
	if len(r.Values) == 0 {
		return fmt.Errorf("%w: zero element count", kerrors.ErrMalformedRequest)
	}
	return nil
}

// Size returns the total wire size of the request.
func (r *Request) Size() uint32 {
	return HeaderSize + uint32(len(r.Values))*SlotSize
}

// Marshal encodes the request for the device-control call.
func (r *Request) Marshal() ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	b := make([]byte, r.Size())
	bytes.PutUint32(b[0:], uint32(r.Space))
	bytes.PutUint32(b[4:], r.Width)
	bytes.PutUint32(b[8:], r.PID)
	bytes.PutUint64(b[12:], r.Address)
	bytes.PutUint32(b[20:], uint32(len(r.Values)))
	bytes.PutUint32(b[24:], r.Size())
	for i, v := range r.Values {
		bytes.PutUint64(b[HeaderSize+i*SlotSize:], v)
	}
	return b, nil
}

// Decode parses and validates the edit request envelope. It is the single
// gate through which the payload becomes trusted: the declared total size
// is authoritative and is checked against the number of bytes actually
// received before any value slot is read. A violation yields
// ErrMalformedRequest and guarantees no slot was touched.
func Decode(b []byte) (*Request, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes can't hold the request header", kerrors.ErrMalformedRequest, len(b))
	}
	r := &Request{
		Space:   Space(bytes.ReadUint32(b[0:])),
		Width:   bytes.ReadUint32(b[4:]),
		PID:     bytes.ReadUint32(b[8:]),
		Address: bytes.ReadUint64(b[12:]),
	}
	count := bytes.ReadUint32(b[20:])
	total := bytes.ReadUint32(b[24:])

	if count == 0 {
		return nil, fmt.Errorf("%w: zero element count", kerrors.ErrMalformedRequest)
	}
	// 64-bit arithmetic keeps an absurd count from wrapping the size check
	if uint64(total) != HeaderSize+uint64(count)*SlotSize {
		return nil, fmt.Errorf("%w: declared size %d doesn't match %d elements", kerrors.ErrMalformedRequest, total, count)
	}
	if uint32(len(b)) != total {
		return nil, fmt.Errorf("%w: received %d bytes, declared %d", kerrors.ErrMalformedRequest, len(b), total)
	}
	if err := r.validateSelectors(); err != nil {
		return nil, err
	}

	r.Values = make([]uint64, count)
	for i := range r.Values {
		r.Values[i] = bytes.ReadUint64(b[HeaderSize+i*SlotSize:])
	}
	return r, nil
}
