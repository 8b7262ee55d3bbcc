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

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtlCode(t *testing.T) {
	// CTL_CODE(FILE_DEVICE_UNKNOWN, 0x801, METHOD_BUFFERED, FILE_ANY_ACCESS)
	assert.Equal(t, uint32(0x222004), IoctlEditMemory)
}

func TestMuxDispatch(t *testing.T) {
	m := NewMux()

	var got []byte
	m.Register(IoctlEditMemory, func(in []byte) error {
		got = append([]byte{}, in...)
		return nil
	})

	require.NoError(t, m.Control(IoctlEditMemory, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.Error(t, m.Control(ctlCode(0x999), nil))
	require.NoError(t, m.Close())
}
