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

package sys

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// SeDebugPrivilege is the name of the privilege that grants access to
// processes owned by other users.
const SeDebugPrivilege = "SeDebugPrivilege"

// errNotAllAssigned is raised by AdjustTokenPrivileges when the token lacks
// one of the requested privileges.
const errNotAllAssigned windows.Errno = 1300

// EnableTokenPrivileges turns on the given privileges in the current process
// token. The token must already hold each privilege, disabled privileges are
// enabled but absent ones cannot be granted here.
func EnableTokenPrivileges(privileges ...string) error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return errors.Wrap(err, "unable to open the process token")
	}
	defer token.Close()

	for _, name := range privileges {
		var luid windows.LUID
		if err := windows.LookupPrivilegeValue(nil, windows.StringToUTF16Ptr(name), &luid); err != nil {
			return errors.Wrapf(err, "unable to resolve the %s privilege", name)
		}
		privs := windows.Tokenprivileges{PrivilegeCount: 1}
		privs.Privileges[0] = windows.LUIDAndAttributes{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED}
		err := windows.AdjustTokenPrivileges(token, false, &privs, 0, nil, nil)
		if err != nil {
			return errors.Wrapf(err, "unable to adjust the %s privilege", name)
		}
		if err == errNotAllAssigned {
			return errors.Wrapf(err, "the %s privilege is not held by the token", name)
		}
	}
	return nil
}

// SetDebugPrivilege enables the debug privilege in the current process,
// widening the set of processes the engine can open.
func SetDebugPrivilege() error {
	return EnableTokenPrivileges(SeDebugPrivilege)
}
