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

package console

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	frmt = "output.console.format"
)

// Config contains the tweaks that influence the behaviour of the console output.
type Config struct {
	Format string `json:"output.console.format" yaml:"output.console.format" mapstructure:"format"`
}

// AddFlags registers persistent flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(frmt, string(plain), "Specifies the module list output format. Choose between plain|pretty")
}

// InitFromViper initializes console output config from Viper.
func (c *Config) InitFromViper(v *viper.Viper) {
	c.Format = v.GetString(frmt)
}
