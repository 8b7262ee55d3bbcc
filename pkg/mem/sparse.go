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
	"fmt"
)

// PageSize is the granularity of the sparse address space.
const PageSize = 0x1000

// SparseSpace is a page-granular in-memory address space. Accessing a page
// that was never mapped faults, mirroring how an unmapped virtual address
// behaves in a real target. It backs synthetic process images in tests and
// capture tooling.
type SparseSpace struct {
	pages    map[uint64][]byte
	detached bool
}

// NewSparseSpace builds an empty sparse address space.
func NewSparseSpace() *SparseSpace {
	return &SparseSpace{pages: make(map[uint64][]byte)}
}

// Map backs the address range with zeroed pages. The range is rounded
// outwards to page boundaries.
func (s *SparseSpace) Map(addr, size uint64) {
	for page := addr &^ (PageSize - 1); page < addr+size; page += PageSize {
		if _, ok := s.pages[page]; !ok {
			s.pages[page] = make([]byte, PageSize)
		}
	}
}

// ReadAt copies len(b) bytes starting at addr. Crossing into an unmapped
// page faults without filling the remainder of the buffer.
func (s *SparseSpace) ReadAt(addr uint64, b []byte) error {
	if s.detached {
		return fmt.Errorf("address space already detached")
	}
	for n := 0; n < len(b); {
		page, ok := s.pages[addr&^(PageSize-1)]
		if !ok {
			return fmt.Errorf("unmapped address %#x", addr)
		}
		off := addr & (PageSize - 1)
		c := copy(b[n:], page[off:])
		n += c
		addr += uint64(c)
	}
	return nil
}

// WriteAt stores len(b) bytes starting at addr. Writes already applied
// before a fault are kept.
func (s *SparseSpace) WriteAt(addr uint64, b []byte) error {
	if s.detached {
		return fmt.Errorf("address space already detached")
	}
	for n := 0; n < len(b); {
		page, ok := s.pages[addr&^(PageSize-1)]
		if !ok {
			return fmt.Errorf("unmapped address %#x", addr)
		}
		off := addr & (PageSize - 1)
		c := copy(page[off:], b[n:])
		n += c
		addr += uint64(c)
	}
	return nil
}

// Detach marks the space unusable for further access.
func (s *SparseSpace) Detach() error {
	s.detached = true
	return nil
}

// Detached reports whether the space was released.
func (s *SparseSpace) Detached() bool { return s.detached }
