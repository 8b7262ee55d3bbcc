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
)

const (
	// deviceUnknown is the custom device type used for vendor control codes
	deviceUnknown = 0x22
	// methodBuffered designates the buffered I/O transfer method
	methodBuffered = 0x0
	// anyAccess imposes no specific access requirement on the requestor
	anyAccess = 0x0
)

// ctlCode composes a device-control code the same way the CTL_CODE macro does.
func ctlCode(function uint32) uint32 {
	return deviceUnknown<<16 | anyAccess<<14 | function<<2 | methodBuffered
}

// IoctlEditMemory carries a memory edit request envelope.
var IoctlEditMemory = ctlCode(0x801)

// HandlerFunc consumes the input buffer of one device-control request.
type HandlerFunc func(in []byte) error

// Controller is the boundary through which the front end submits structured
// requests to the engine. The live controller talks to the companion driver
// device, while the in-process mux serves the engine linked directly into
// the front end.
type Controller interface {
	// Control submits one request buffer under the given control code.
	Control(code uint32, in []byte) error
	// Close releases the underlying device resources.
	Close() error
}

// Mux dispatches device-control requests to handlers registered in the
// current process.
type Mux struct {
	handlers map[uint32]HandlerFunc
}

// NewMux builds an empty in-process controller.
func NewMux() *Mux {
	return &Mux{handlers: make(map[uint32]HandlerFunc)}
}

// Register binds the handler to the control code. The last registration wins.
func (m *Mux) Register(code uint32, h HandlerFunc) {
	m.handlers[code] = h
}

// Control dispatches the request to the handler registered for the code.
func (m *Mux) Control(code uint32, in []byte) error {
	h, ok := m.handlers[code]
	if !ok {
		return fmt.Errorf("unknown device control code %#x", code)
	}
	return h(in)
}

// Close implements the Controller interface.
func (m *Mux) Close() error { return nil }
