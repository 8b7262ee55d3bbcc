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
	"os"

	"github.com/spf13/cobra"

	"github.com/kvasirlabs/kvasir/cmd/kvasir/common"
	"github.com/kvasirlabs/kvasir/pkg/config"
	"github.com/kvasirlabs/kvasir/pkg/device"
	"github.com/kvasirlabs/kvasir/pkg/edit"
	"github.com/kvasirlabs/kvasir/pkg/util/hex"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Patch process virtual memory or raw physical memory",
}

var editByteCmd = &cobra.Command{
	Use:     "byte <address> <value>...",
	Aliases: []string{"b", "eb"},
	Short:   "Write byte values",
	Args:    cobra.MinimumNArgs(2),
	RunE:    editFn(1),
}

var editDwordCmd = &cobra.Command{
	Use:     "dword <address> <value>...",
	Aliases: []string{"d", "ed"},
	Short:   "Write dword values",
	Args:    cobra.MinimumNArgs(2),
	RunE:    editFn(4),
}

var editQwordCmd = &cobra.Command{
	Use:     "qword <address> <value>...",
	Aliases: []string{"q", "eq"},
	Short:   "Write qword values",
	Args:    cobra.MinimumNArgs(2),
	RunE:    editFn(8),
}

var (
	editConfig = config.NewWithOpts(config.WithEdit())

	editPid  uint32
	physical bool
)

func init() {
	editConfig.MustViperize(editCmd)

	editCmd.PersistentFlags().Uint32Var(&editPid, "pid", 0, "Designates the target process. Defaults to the current process")
	editCmd.PersistentFlags().BoolVar(&physical, "physical", false, "Addresses raw physical memory instead of process virtual memory")

	editCmd.AddCommand(editByteCmd)
	editCmd.AddCommand(editDwordCmd)
	editCmd.AddCommand(editQwordCmd)
}

// editFn builds the command runner for the given element width. The command
// arguments are hexadecimal: the first one is the target address, the rest
// are the values to write at consecutive width-spaced addresses.
func editFn(width uint32) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := common.Init(editConfig, true); err != nil {
			return err
		}

		addr, err := hex.ParseUint64(args[0])
		if err != nil {
			return err
		}
		values := make([]uint64, 0, len(args)-1)
		for _, arg := range args[1:] {
			v, err := hex.ParseValue(arg, width)
			if err != nil {
				return err
			}
			values = append(values, v)
		}

		space := edit.SpaceVirtual
		if physical {
			space = edit.SpacePhysical
		}
		pid := editPid
		if pid == 0 {
			pid = uint32(os.Getpid())
		}

		r := edit.NewRequest(space, width, pid, addr, values)
		b, err := r.Marshal()
		if err != nil {
			return err
		}

		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer func() {
			_ = ctrl.Close()
		}()

		return ctrl.Control(device.IoctlEditMemory, b)
	}
}

// newController opens the control device when one is configured, otherwise
// the edit engine is linked in-process and dispatched through the mux.
func newController() (device.Controller, error) {
	if editConfig.DevicePath != "" {
		return device.Open(editConfig.DevicePath)
	}
	kernel, err := newKernel()
	if err != nil {
		return nil, err
	}
	mux := device.NewMux()
	mux.Register(device.IoctlEditMemory, edit.NewHandler(kernel).Handle)
	return mux, nil
}
