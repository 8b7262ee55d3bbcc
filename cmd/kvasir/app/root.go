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

package app

import (
	"errors"
	"runtime"

	"github.com/spf13/cobra"
)

// RootCmd is the entrance to Kvasir CLI
var RootCmd = &cobra.Command{
	Use:   "kvasir",
	Short: "Process memory introspection and editing",
	Long: `
	Kvasir peeks inside the user-mode anatomy of Windows processes.
	It resolves the on-disk image path, detects whether the target runs
	natively or under the 32-bit compatibility layer, walks the loader
	module list in load order, and patches process virtual memory or raw
	physical memory with byte, dword and qword granularity.
	`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if runtime.GOOS != "windows" {
			return errors.New("kvasir can only be run on Windows operating systems")
		}
		if runtime.GOARCH == "386" {
			return errors.New("kvasir can't be run on 32-bits Windows operating systems")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(lmCmd)
	RootCmd.AddCommand(editCmd)
	RootCmd.AddCommand(docsCmd)
	RootCmd.AddCommand(versionCmd)
}
