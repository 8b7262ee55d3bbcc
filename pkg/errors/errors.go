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

package errors

import (
	"errors"
)

var (
	// ErrProcessNotFound is returned when the process id doesn't designate a live process
	ErrProcessNotFound = errors.New("process not found or already exited")
	// ErrQueryFailed signals an unexpected status from the process information query
	ErrQueryFailed = errors.New("process information query failed")
	// ErrBufferTooSmall is returned when the caller-declared capacity can't accommodate the image path
	ErrBufferTooSmall = errors.New("declared buffer capacity is smaller than the image path")
	// ErrUnsupportedRuntime signals that a required kernel accessor couldn't be resolved at startup
	ErrUnsupportedRuntime = errors.New("required kernel accessor is unavailable on this system")
	// ErrNoUserContext is returned for processes without a user-mode address space, e.g. system processes
	ErrNoUserContext = errors.New("process has no user-mode address space")
	// ErrNoLoaderData signals a null loader-data pointer in the process descriptor. This
	// happens when the loader hasn't been initialized yet and is not a crash condition
	ErrNoLoaderData = errors.New("process loader data is not initialized")
	// ErrMalformedRequest is returned when the edit request structure fails size/count validation
	ErrMalformedRequest = errors.New("malformed memory edit request")
	// ErrWriteFault signals an invalid or unmapped target address in the middle of an edit
	ErrWriteFault = errors.New("target address is inaccessible")
)

// IsProcessNotFound returns true if the error indicates an invalid or exited process.
func IsProcessNotFound(err error) bool { return errors.Is(err, ErrProcessNotFound) }

// IsBufferTooSmall returns true if the error comes from the capacity pre-flight check.
func IsBufferTooSmall(err error) bool { return errors.Is(err, ErrBufferTooSmall) }

// IsUnsupportedRuntime returns true when a kernel accessor is missing from the capability table.
func IsUnsupportedRuntime(err error) bool { return errors.Is(err, ErrUnsupportedRuntime) }

// IsNoUserContext returns true for processes lacking a user-mode address space.
func IsNoUserContext(err error) bool { return errors.Is(err, ErrNoUserContext) }

// IsNoLoaderData returns true when the loader module list is not reachable yet.
func IsNoLoaderData(err error) bool { return errors.Is(err, ErrNoLoaderData) }

// IsMalformedRequest returns true if the edit request failed structural validation.
func IsMalformedRequest(err error) bool { return errors.Is(err, ErrMalformedRequest) }

// IsWriteFault returns true if a memory write hit an inaccessible address.
func IsWriteFault(err error) bool { return errors.Is(err, ErrWriteFault) }
