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
	"testing"

	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSpaceReadWrite(t *testing.T) {
	s := NewSparseSpace()
	s.Map(0x1000, 0x2000)

	require.NoError(t, s.WriteAt(0x1ff0, []byte{0xde, 0xad, 0xbe, 0xef}))

	b := make([]byte, 4)
	require.NoError(t, s.ReadAt(0x1ff0, b))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
}

func TestSparseSpacePageBoundary(t *testing.T) {
	s := NewSparseSpace()
	s.Map(0x1000, 0x2000)

	// write straddling two mapped pages
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, s.WriteAt(0x1ffc, payload))

	b := make([]byte, 8)
	require.NoError(t, s.ReadAt(0x1ffc, b))
	assert.Equal(t, payload, b)
}

func TestSparseSpaceFaults(t *testing.T) {
	s := NewSparseSpace()
	s.Map(0x1000, 0x1000)

	require.Error(t, s.ReadAt(0x5000, make([]byte, 1)))
	require.Error(t, s.WriteAt(0x0, []byte{0x90}))
	// access crossing into an unmapped page faults
	require.Error(t, s.WriteAt(0x1ffe, []byte{1, 2, 3, 4}))
}

func TestSparseSpaceWidening(t *testing.T) {
	s := NewSparseSpace()
	s.Map(0x1000, 0x1000)

	// high bit set in a narrow pointer must zero-extend
	require.NoError(t, s.WriteAt(0x1000, bytes.WriteUint32(0x80000000)))
	v, err := ReadPointer(s, 0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80000000), v)

	require.NoError(t, s.WriteAt(0x1008, bytes.WriteUint64(0xfffff8077356f010)))
	v, err = ReadPointer(s, 0x1008, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xfffff8077356f010), v)

	_, err = ReadPointer(s, 0x1000, 2)
	require.Error(t, err)
}

func TestSparseSpaceDetach(t *testing.T) {
	s := NewSparseSpace()
	s.Map(0x1000, 0x1000)
	require.NoError(t, s.Detach())
	assert.True(t, s.Detached())
	require.Error(t, s.ReadAt(0x1000, make([]byte, 1)))
}
