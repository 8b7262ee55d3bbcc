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
	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"

	"github.com/kvasirlabs/kvasir/cmd/kvasir/common"
	"github.com/kvasirlabs/kvasir/pkg/config"
	"github.com/kvasirlabs/kvasir/pkg/loader"
	"github.com/kvasirlabs/kvasir/pkg/outputs/console"
	"github.com/kvasirlabs/kvasir/pkg/pe"
	"github.com/kvasirlabs/kvasir/pkg/proc"
)

// maxImagePathSize is the image path buffer capacity the command declares.
// A resolved path longer than this fails the command instead of being
// silently truncated.
const maxImagePathSize = 1024

var lmCmd = &cobra.Command{
	Use:   "lm",
	Short: "List the modules loaded into a process",
	RunE:  listModules,
}

var (
	lmConfig = config.NewWithOpts(config.WithList())

	lmPid    uint32
	verifyPE bool
)

func init() {
	lmConfig.MustViperize(lmCmd)

	lmCmd.Flags().Uint32Var(&lmPid, "pid", 0, "Designates the target process")
	lmCmd.Flags().BoolVar(&verifyPE, "pe", false, "Cross-checks each module against its on-disk executable headers")

	_ = lmCmd.MarkFlagRequired("pid")
}

// listModules resolves the process image path and execution mode, then walks
// the loader module list rendering one record per loaded module.
func listModules(cmd *cobra.Command, args []string) error {
	if err := common.Init(lmConfig, true); err != nil {
		return err
	}

	kernel, err := newKernel()
	if err != nil {
		return err
	}

	p, err := kernel.OpenProcess(lmPid)
	if err != nil {
		return err
	}
	defer p.Release()

	path, err := proc.ResolveImagePath(p, maxImagePathSize)
	if err != nil {
		return err
	}
	mode, peb, err := proc.DetectMode(kernel, p)
	if err != nil {
		return err
	}

	c := console.New(lmConfig.Console)
	c.Header(p.ID(), mode.String(), path)

	err = loader.EnumerateModules(p, mode, peb, func(m loader.Module) error {
		if verifyPE {
			crossCheck(m)
		}
		return c.Emit(m)
	})
	if err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}

// crossCheck compares the in-memory module record against the executable
// headers of its backing file. Mismatches are reported, never fatal: a
// relocated or hot-patched module is an observation, not an error.
func crossCheck(m loader.Module) {
	img, err := pe.Inspect(m.Path)
	if err != nil {
		log.Debugf("unable to inspect %s: %v", m.Path, err)
		return
	}
	if uint64(img.SizeOfImage) != m.Size {
		log.Warnf("module %s: mapped size %#x differs from header size %#x", m.Name, m.Size, img.SizeOfImage)
	}
	if img.EntryPoint != 0 && m.EntryPoint != m.Base+uint64(img.EntryPoint) {
		log.Warnf("module %s: entry point %#x differs from header entry point %#x", m.Name, m.EntryPoint, m.Base+uint64(img.EntryPoint))
	}
}
