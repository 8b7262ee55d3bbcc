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

package common

import (
	"os"

	"github.com/kvasirlabs/kvasir/pkg/config"
	"github.com/kvasirlabs/kvasir/pkg/util/log"
)

// Init initializes and validates the configuration as given by the commands.
// This function also sets up the logger and adjusts the process token with
// the debug privilege if required.
func Init(c *config.Config, debugPrivilege bool) error {
	if _, err := os.Stat(c.File()); err == nil {
		if err := c.TryLoadFile(c.File()); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if err := c.Init(); err != nil {
		return err
	}
	// inject the debug privilege if enabled
	if c.DebugPrivilege && debugPrivilege {
		setDebugPrivilege()
	}
	if err := log.InitFromConfig(c.Log); err != nil {
		return err
	}
	return nil
}
