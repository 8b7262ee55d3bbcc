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
	"expvar"
	"fmt"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/mem"
	"github.com/kvasirlabs/kvasir/pkg/proc"
)

var (
	moduleWalks   = expvar.NewInt("loader.module.walks")
	modulesEmitted = expvar.NewInt("loader.modules.emitted")
)

// Module describes one binary loaded into the target process. All address
// fields are normalized to 64-bit quantities at the read site regardless of
// the descriptor variant they were read from.
type Module struct {
	// Base is the load address of the module image.
	Base uint64
	// EntryPoint is the address of the module entry point, zero for
	// images without one.
	EntryPoint uint64
	// Size is the virtual size of the mapped image.
	Size uint64
	// Name is the short module name.
	Name string
	// Path is the full on-disk path of the module.
	Path string
}

// Sink consumes module records as the walk produces them. Records are
// emitted eagerly, one at a time: the sequence is finite, forward-only and
// not restartable, so a consumer that needs it twice re-invokes the walk.
// A sink error stops the walk and propagates to the caller.
type Sink func(Module) error

// EnumerateModules walks the loader module list of the referenced process
// and emits one record per loaded module. The caller must have already
// detected the execution mode and located the process descriptor: the walk
// consults the layout table for that mode and never re-probes.
//
// The module list lives in the target's private address space and is only
// valid while attached, so the walk attaches for its whole duration and
// detaches on every exit path. The list is circular with a sentinel head
// that is never itself a module: traversal stops exactly when the forward
// pointer returns to the head, never on a count.
func EnumerateModules(p proc.Process, mode proc.Mode, peb uint64, sink Sink) error {
	l, ok := layouts[mode]
	if !ok {
		return fmt.Errorf("no descriptor layout for mode %v", mode)
	}

	space, err := p.Attach()
	if err != nil {
		return fmt.Errorf("unable to attach to pid %d: %v", p.ID(), err)
	}
	defer func() {
		// detach happens unconditionally and its failure never masks
		// the walk's own error
		_ = space.Detach()
	}()

	moduleWalks.Add(1)

	ldr, err := l.readPointer(space, peb+l.ldr)
	if err != nil {
		return err
	}
	if ldr == 0 {
		// the loader hasn't run yet, or the attach raced process startup
		return fmt.Errorf("%w: pid %d", kerrors.ErrNoLoaderData, p.ID())
	}

	head := ldr + l.inLoadOrder
	cur, err := l.readPointer(space, head)
	if err != nil {
		return err
	}

	for cur != head {
		m, err := l.readEntry(space, cur)
		if err != nil {
			return err
		}
		if err := sink(m); err != nil {
			return err
		}
		modulesEmitted.Add(1)
		cur, err = l.readPointer(space, cur)
		if err != nil {
			return err
		}
	}

	return nil
}

// readEntry reads one module entry. The entry address equals the list node
// address because the load-order links are the entry's first field.
func (l layout) readEntry(space mem.AddressSpace, entry uint64) (Module, error) {
	var m Module
	var err error
	if m.Base, err = l.readPointer(space, entry+l.dllBase); err != nil {
		return m, err
	}
	if m.EntryPoint, err = l.readPointer(space, entry+l.entryPoint); err != nil {
		return m, err
	}
	// the image size is a 32-bit field in both descriptor variants
	if m.Size, err = mem.ReadPointer(space, entry+l.sizeOfImage, 4); err != nil {
		return m, err
	}
	if m.Name, err = l.readString(space, entry+l.baseName); err != nil {
		return m, err
	}
	if m.Path, err = l.readString(space, entry+l.fullName); err != nil {
		return m, err
	}
	return m, nil
}
