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
	"fmt"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
	"github.com/kvasirlabs/kvasir/pkg/util/utf16"
)

// ResolveImagePath obtains the on-disk image path of the referenced process.
// The capacity argument declares the caller's maximum path buffer size in
// bytes. The required size is established with a zero-length probe first: if
// the true path doesn't fit the declared capacity the operation fails with
// ErrBufferTooSmall before any allocation takes place, so the caller never
// receives a silently truncated path.
func ResolveImagePath(p Process, capacity uint32) (string, error) {
	needed, err := p.QueryImage(nil)
	if !errors.Is(err, ErrLengthMismatch) {
		return "", fmt.Errorf("%w: unexpected probe status: %v", kerrors.ErrQueryFailed, err)
	}
	if needed < imageDescriptorSize {
		return "", fmt.Errorf("%w: bogus required length %d", kerrors.ErrQueryFailed, needed)
	}
	// the path byte length is the block size minus the fixed descriptor header
	pathLen := needed - imageDescriptorSize
	if capacity < pathLen {
		return "", fmt.Errorf("%w: need %d bytes, declared %d", kerrors.ErrBufferTooSmall, pathLen, capacity)
	}

	// the temporary block is scoped to this call on both branches
	block := make([]byte, needed)
	if _, err := p.QueryImage(block); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrQueryFailed, err)
	}

	// the descriptor prefix carries the exact path length, which can be
	// shorter than the payload when the block is padded with a terminator
	length := uint32(bytes.ReadUint16(block))
	if length > pathLen {
		length = pathLen
	}

	// the caller-owned buffer is allocated at the declared capacity and
	// zero-initialized, holding only the path payload
	out := make([]byte, capacity)
	copy(out, block[imageDescriptorSize:imageDescriptorSize+length])

	return utf16.DecodeBytes(out[:length]), nil
}
