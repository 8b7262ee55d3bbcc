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
	"errors"
	"testing"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/proc"
	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
	"github.com/kvasirlabs/kvasir/pkg/util/utf16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	id       uint32
	space    *mem.SparseSpace
	attaches int
}

func (p *fakeProcess) ID() uint32                { return p.id }
func (p *fakeProcess) Peb() (uint64, error)      { return 0, nil }
func (p *fakeProcess) Wow64Peb() (uint64, error) { return 0, nil }
func (p *fakeProcess) Release()                  {}

func (p *fakeProcess) QueryImage([]byte) (uint32, error) {
	return 0, errors.New("not implemented")
}

func (p *fakeProcess) Attach() (mem.AddressSpace, error) {
	p.attaches++
	return p.space, nil
}

type moduleSpec struct {
	base, entry, size uint64
	name, path        string
}

const (
	pebAddr   = uint64(0x7ffd0000)
	ldrAddr   = uint64(0x7ffe0000)
	strsAddr  = uint64(0x7fff0000)
	entryAddr = uint64(0x20000000)
)

// synthesize lays out a process descriptor, loader data and a circular
// load-order module list in a sparse address space, honoring the offset
// table of the requested descriptor variant.
func synthesize(t *testing.T, mode proc.Mode, mods []moduleSpec) *mem.SparseSpace {
	t.Helper()
	l := layouts[mode]
	s := mem.NewSparseSpace()
	s.Map(pebAddr, mem.PageSize)
	s.Map(ldrAddr, mem.PageSize)
	s.Map(strsAddr, 4*mem.PageSize)
	s.Map(entryAddr, uint64(len(mods)+1)*mem.PageSize)

	writePtr := func(addr, val uint64) {
		if l.ptrWidth == 4 {
			require.NoError(t, s.WriteAt(addr, bytes.WriteUint32(uint32(val))))
		} else {
			require.NoError(t, s.WriteAt(addr, bytes.WriteUint64(val)))
		}
	}

	strs := strsAddr
	writeString := func(addr uint64, v string) {
		payload := utf16.Encode(v)
		require.NoError(t, s.WriteAt(addr, bytes.WriteUint16(uint16(len(payload)))))
		require.NoError(t, s.WriteAt(addr+2, bytes.WriteUint16(uint16(len(payload)+2))))
		writePtr(addr+l.strBuffer, strs)
		require.NoError(t, s.WriteAt(strs, payload))
		strs += uint64(len(payload) + 2)
	}

	writePtr(pebAddr+l.ldr, ldrAddr)

	head := ldrAddr + l.inLoadOrder
	prev := head
	for i, m := range mods {
		entry := entryAddr + uint64(i)*mem.PageSize
		writePtr(prev, entry)                  // Flink
		writePtr(entry+uint64(l.ptrWidth), prev) // Blink
		writePtr(entry+l.dllBase, m.base)
		writePtr(entry+l.entryPoint, m.entry)
		require.NoError(t, s.WriteAt(entry+l.sizeOfImage, bytes.WriteUint32(uint32(m.size))))
		writeString(entry+l.baseName, m.name)
		writeString(entry+l.fullName, m.path)
		prev = entry
	}
	// close the circle back to the sentinel head
	writePtr(prev, head)

	return s
}

func collect(t *testing.T, p *fakeProcess, mode proc.Mode) []Module {
	t.Helper()
	var mods []Module
	err := EnumerateModules(p, mode, pebAddr, func(m Module) error {
		mods = append(mods, m)
		return nil
	})
	require.NoError(t, err)
	return mods
}

func TestEnumerateModulesNative(t *testing.T) {
	specs := []moduleSpec{
		{base: 0x7ff6a0000000, entry: 0x7ff6a0001234, size: 0x25000, name: "notepad.exe", path: `C:\Windows\System32\notepad.exe`},
		{base: 0x7ffda0000000, entry: 0, size: 0x1f8000, name: "ntdll.dll", path: `C:\Windows\System32\ntdll.dll`},
		{base: 0x7ffd9e000000, entry: 0x7ffd9e012340, size: 0xb3000, name: "kernel32.dll", path: `C:\Windows\System32\kernel32.dll`},
	}
	p := &fakeProcess{id: 2040, space: synthesize(t, proc.ModeNative, specs)}

	mods := collect(t, p, proc.ModeNative)
	require.Len(t, mods, 3)
	for i, m := range mods {
		assert.Equal(t, specs[i].base, m.Base)
		assert.Equal(t, specs[i].entry, m.EntryPoint)
		assert.Equal(t, specs[i].size, m.Size)
		assert.Equal(t, specs[i].name, m.Name)
		assert.Equal(t, specs[i].path, m.Path)
	}

	// one attach, balanced by one detach
	assert.Equal(t, 1, p.attaches)
	assert.True(t, p.space.Detached())
}

func TestEnumerateModulesCompatWidening(t *testing.T) {
	// narrow fields with the high bit set must come out zero-extended
	specs := []moduleSpec{
		{base: 0x80001000, entry: 0x8000beef, size: 0x10000, name: "wow64.dll", path: `C:\Windows\System32\wow64.dll`},
	}
	p := &fakeProcess{id: 512, space: synthesize(t, proc.ModeCompat, specs)}

	mods := collect(t, p, proc.ModeCompat)
	require.Len(t, mods, 1)
	assert.Equal(t, uint64(0x0000000080001000), mods[0].Base)
	assert.Equal(t, uint64(0x000000008000beef), mods[0].EntryPoint)
	assert.Equal(t, "wow64.dll", mods[0].Name)
	assert.True(t, p.space.Detached())
}

func TestEnumerateModulesEmptyList(t *testing.T) {
	p := &fakeProcess{id: 4, space: synthesize(t, proc.ModeNative, nil)}

	mods := collect(t, p, proc.ModeNative)
	assert.Empty(t, mods)
	// an empty list is not a failure but the space is still detached
	assert.Equal(t, 1, p.attaches)
	assert.True(t, p.space.Detached())
}

func TestEnumerateModulesNoLoaderData(t *testing.T) {
	s := mem.NewSparseSpace()
	s.Map(pebAddr, mem.PageSize)
	p := &fakeProcess{id: 4, space: s}

	err := EnumerateModules(p, proc.ModeNative, pebAddr, func(Module) error { return nil })
	require.True(t, kerrors.IsNoLoaderData(err))
	assert.True(t, s.Detached())
}

func TestEnumerateModulesSinkError(t *testing.T) {
	specs := []moduleSpec{
		{base: 0x10000000, size: 0x1000, name: "a.dll", path: `C:\a.dll`},
		{base: 0x20000000, size: 0x1000, name: "b.dll", path: `C:\b.dll`},
	}
	p := &fakeProcess{id: 2040, space: synthesize(t, proc.ModeNative, specs)}

	errStop := errors.New("stop")
	seen := 0
	err := EnumerateModules(p, proc.ModeNative, pebAddr, func(Module) error {
		seen++
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, seen)
	assert.True(t, p.space.Detached())
}

func TestEnumerateModulesCorruptPointer(t *testing.T) {
	specs := []moduleSpec{{base: 0x10000000, size: 0x1000, name: "a.dll", path: `C:\a.dll`}}
	p := &fakeProcess{id: 2040, space: synthesize(t, proc.ModeNative, specs)}

	// point the first entry's forward link into unmapped space
	entry := entryAddr
	require.NoError(t, p.space.WriteAt(entry, bytes.WriteUint64(0xdead0000)))

	err := EnumerateModules(p, proc.ModeNative, pebAddr, func(Module) error { return nil })
	require.Error(t, err)
	assert.True(t, p.space.Detached())
}
