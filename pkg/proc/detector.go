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
	"fmt"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
)

// DetectMode determines the execution mode of the referenced process and
// returns the address of its process descriptor. The mode decision and the
// descriptor come from the same probe invocation, so a process that changes
// state between calls can't yield a mode that disagrees with the descriptor.
//
// The compatibility-layer accessor is probed first: a non-null result settles
// compatibility mode. Only a null result falls through to the native probe.
// Both probes null means the process has no user-mode address space, which is
// a legitimate outcome for system processes, reported as ErrNoUserContext.
func DetectMode(k Kernel, p Process) (Mode, uint64, error) {
	// the capability table is consulted on every call rather than cached,
	// so a degraded environment always reports failure instead of guessing
	caps := k.Caps()
	if !caps.PebProbe || !caps.Wow64Probe {
		return 0, 0, fmt.Errorf("%w: process descriptor accessors not resolved", kerrors.ErrUnsupportedRuntime)
	}

	wow, err := p.Wow64Peb()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: compatibility descriptor probe: %v", kerrors.ErrQueryFailed, err)
	}
	if wow != 0 {
		return ModeCompat, wow, nil
	}

	peb, err := p.Peb()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: native descriptor probe: %v", kerrors.ErrQueryFailed, err)
	}
	if peb != 0 {
		return ModeNative, peb, nil
	}

	return 0, 0, fmt.Errorf("%w: pid %d", kerrors.ErrNoUserContext, p.ID())
}
