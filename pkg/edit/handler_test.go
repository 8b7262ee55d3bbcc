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
	"errors"
	"testing"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	id       uint32
	space    *mem.SparseSpace
	attaches int
	released bool
}

func (p *fakeProcess) ID() uint32                { return p.id }
func (p *fakeProcess) Peb() (uint64, error)      { return 0, nil }
func (p *fakeProcess) Wow64Peb() (uint64, error) { return 0, nil }
func (p *fakeProcess) Release()                  { p.released = true }

func (p *fakeProcess) QueryImage([]byte) (uint32, error) {
	return 0, errors.New("not implemented")
}

func (p *fakeProcess) Attach() (mem.AddressSpace, error) {
	p.attaches++
	return p.space, nil
}

type fakeKernel struct {
	procs    map[uint32]*fakeProcess
	physical *mem.SparseSpace
	lookups  int
}

func (k *fakeKernel) Caps() proc.Caps { return proc.Caps{} }

func (k *fakeKernel) OpenProcess(pid uint32) (proc.Process, error) {
	k.lookups++
	p, ok := k.procs[pid]
	if !ok {
		return nil, kerrors.ErrProcessNotFound
	}
	return p, nil
}

func (k *fakeKernel) PhysicalSpace() (mem.AddressSpace, error) {
	return k.physical, nil
}

func fill(t *testing.T, s *mem.SparseSpace, addr uint64, n int, v byte) {
	t.Helper()
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	require.NoError(t, s.WriteAt(addr, b))
}

func readback(t *testing.T, s *mem.SparseSpace, addr uint64, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	require.NoError(t, s.ReadAt(addr, b))
	return b
}

func TestApplySingleByte(t *testing.T) {
	space := mem.NewSparseSpace()
	space.Map(0x1000, mem.PageSize)
	fill(t, space, 0x1000, 16, 0xcc)

	p := &fakeProcess{id: 2040, space: space}
	h := NewHandler(&fakeKernel{procs: map[uint32]*fakeProcess{2040: p}})

	require.NoError(t, h.Apply(NewRequest(SpaceVirtual, 1, 2040, 0x1000, []uint64{0x90})))

	// exactly one byte is edited, the neighbor stays intact
	assert.Equal(t, []byte{0x90, 0xcc}, readback(t, space, 0x1000, 2))
	assert.Equal(t, 1, p.attaches)
	assert.True(t, p.released)
	assert.True(t, space.Detached())
}

func TestApplyPhysicalQwords(t *testing.T) {
	physical := mem.NewSparseSpace()
	physical.Map(0x100000, mem.PageSize)

	// no processes registered on purpose: physical edits never resolve one
	k := &fakeKernel{physical: physical}
	h := NewHandler(k)

	r := NewRequest(SpacePhysical, 8, 0xdead, 0x100000, []uint64{0x9090909090909090, 0x9090909090909090})
	require.NoError(t, h.Apply(r))

	expected := make([]byte, 16)
	for i := range expected {
		expected[i] = 0x90
	}
	assert.Equal(t, expected, readback(t, physical, 0x100000, 16))
	assert.Equal(t, 0, k.lookups)
}

func TestApplyWidthTruncation(t *testing.T) {
	space := mem.NewSparseSpace()
	space.Map(0x1000, mem.PageSize)
	fill(t, space, 0x1000, 16, 0xff)

	p := &fakeProcess{id: 7, space: space}
	h := NewHandler(&fakeKernel{procs: map[uint32]*fakeProcess{7: p}})

	// only the low 4 bytes of each slot are applied
	require.NoError(t, h.Apply(NewRequest(SpaceVirtual, 4, 7, 0x1000, []uint64{0x1122334455667788, 0xaabbccdd})))

	v, err := mem.ReadPointer(space, 0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x55667788), v)
	v, err = mem.ReadPointer(space, 0x1004, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xaabbccdd), v)
	// the byte past the last element is untouched
	assert.Equal(t, []byte{0xff}, readback(t, space, 0x1008, 1))
}

func TestHandleMalformedPerformsNoWrites(t *testing.T) {
	space := mem.NewSparseSpace()
	space.Map(0x1000, mem.PageSize)
	fill(t, space, 0x1000, 32, 0xcc)

	p := &fakeProcess{id: 2040, space: space}
	k := &fakeKernel{procs: map[uint32]*fakeProcess{2040: p}}
	h := NewHandler(k)

	b, err := NewRequest(SpaceVirtual, 8, 2040, 0x1000, []uint64{1, 2, 3}).Marshal()
	require.NoError(t, err)
	// chop the last slot so the declared size disagrees with reality
	err = h.Handle(b[:len(b)-SlotSize])
	require.True(t, kerrors.IsMalformedRequest(err))

	// rejection happens before the process is even resolved
	assert.Equal(t, 0, k.lookups)
	assert.Equal(t, 0, p.attaches)
	expected := make([]byte, 32)
	for i := range expected {
		expected[i] = 0xcc
	}
	assert.Equal(t, expected, readback(t, space, 0x1000, 32))
}

func TestApplyWriteFaultAborts(t *testing.T) {
	space := mem.NewSparseSpace()
	// single mapped page: the third qword lands in unmapped territory
	space.Map(0x1000, mem.PageSize)

	p := &fakeProcess{id: 2040, space: space}
	h := NewHandler(&fakeKernel{procs: map[uint32]*fakeProcess{2040: p}})

	r := NewRequest(SpaceVirtual, 8, 2040, 0x1ff0, []uint64{1, 2, 3})
	err := h.Apply(r)
	require.True(t, kerrors.IsWriteFault(err))

	// writes applied before the fault are kept, not rolled back
	v, err2 := mem.ReadPointer(space, 0x1ff0, 8)
	require.NoError(t, err2)
	assert.Equal(t, uint64(1), v)
	v, err2 = mem.ReadPointer(space, 0x1ff8, 8)
	require.NoError(t, err2)
	assert.Equal(t, uint64(2), v)

	// resources are scoped per call even on the failure branch
	assert.True(t, p.released)
	assert.True(t, space.Detached())
}

func TestApplyProcessNotFound(t *testing.T) {
	h := NewHandler(&fakeKernel{procs: map[uint32]*fakeProcess{}})
	err := h.Apply(NewRequest(SpaceVirtual, 1, 666, 0x1000, []uint64{0x90}))
	require.True(t, kerrors.IsProcessNotFound(err))
}
