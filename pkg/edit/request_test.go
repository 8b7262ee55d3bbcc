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
	"testing"

	kerrors "github.com/kvasirlabs/kvasir/pkg/errors"
	"github.com/kvasirlabs/kvasir/pkg/util/bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundtrip(t *testing.T) {
	r := NewRequest(SpaceVirtual, 4, 2040, 0x7ff6a0001000, []uint64{0x90909090, 0xcccccccc})

	b, err := r.Marshal()
	require.NoError(t, err)
	assert.Len(t, b, int(HeaderSize+2*SlotSize))

	d, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, r.Space, d.Space)
	assert.Equal(t, r.Width, d.Width)
	assert.Equal(t, r.PID, d.PID)
	assert.Equal(t, r.Address, d.Address)
	assert.Equal(t, r.Values, d.Values)
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := NewRequest(SpacePhysical, 8, 0, 0x100000, []uint64{0x9090909090909090}).Marshal()
	require.NoError(t, err)

	var tests = []struct {
		name string
		buf  func() []byte
	}{
		{"short header", func() []byte { return valid[:HeaderSize-1] }},
		{"zero element count", func() []byte {
			b := append([]byte{}, valid...)
			bytes.PutUint32(b[20:], 0)
			return b
		}},
		{"size doesn't match count", func() []byte {
			b := append([]byte{}, valid...)
			// declare 3 elements while the size still accounts for 1
			bytes.PutUint32(b[20:], 3)
			return b
		}},
		{"missing slots", func() []byte {
			// declared total is consistent with 3 elements but only 1 travels
			b := append([]byte{}, valid...)
			bytes.PutUint32(b[20:], 3)
			bytes.PutUint32(b[24:], HeaderSize+3*SlotSize)
			return b
		}},
		{"unknown memory space", func() []byte {
			b := append([]byte{}, valid...)
			bytes.PutUint32(b[0:], 7)
			return b
		}},
		{"bogus element width", func() []byte {
			b := append([]byte{}, valid...)
			bytes.PutUint32(b[4:], 3)
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf())
			require.True(t, kerrors.IsMalformedRequest(err))
		})
	}
}

func TestMarshalRejectsEmpty(t *testing.T) {
	_, err := NewRequest(SpaceVirtual, 1, 0, 0x1000, nil).Marshal()
	require.True(t, kerrors.IsMalformedRequest(err))
}
