//go:build windows
// +build windows

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
	"fmt"

	"golang.org/x/sys/windows"
)

// dev fronts the companion driver device. Every control call is a
// synchronous buffered DeviceIoControl round trip.
type dev struct {
	handle windows.Handle
	path   string
}

// Open acquires a handle to the driver device, e.g. \\.\kvasir.
func Open(path string) (Controller, error) {
	u, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(
		u,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to open device %s: %v", path, err)
	}
	return &dev{handle: h, path: path}, nil
}

func (d *dev) Control(code uint32, in []byte) error {
	var returned uint32
	var inp *byte
	if len(in) > 0 {
		inp = &in[0]
	}
	err := windows.DeviceIoControl(d.handle, code, inp, uint32(len(in)), nil, 0, &returned, nil)
	if err != nil {
		return fmt.Errorf("device control %#x on %s failed: %v", code, d.path, err)
	}
	return nil
}

func (d *dev) Close() error {
	return windows.CloseHandle(d.handle)
}
