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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kvasirlabs/kvasir/pkg/outputs/console"
	"github.com/kvasirlabs/kvasir/pkg/util/log"
	"github.com/kvasirlabs/kvasir/pkg/util/multierror"
)

const (
	configFile     = "config-file"
	debugPrivilege = "debug-privilege"
	devicePath     = "device.path"
)

// Config stores configuration options for fine-tuning the behaviour of Kvasir.
type Config struct {
	// Console stores the module list output config.
	Console console.Config `json:"output" yaml:"output"`
	// Log contains log-specific configuration options.
	Log log.Config `json:"logging" yaml:"logging"`
	// DebugPrivilege dictates if the SeDebugPrivilege is injected into
	// Kvasir process' access token.
	DebugPrivilege bool `json:"debug-privilege" yaml:"debug-privilege"`
	// DevicePath designates the control device that receives memory edit
	// requests. When empty, requests are dispatched in-process.
	DevicePath string `json:"device.path" yaml:"device.path"`

	flags *pflag.FlagSet
	viper *viper.Viper
	opts  *Options
}

// Options determines which config flags are toggled depending on the command type.
type Options struct {
	list bool
	edit bool
}

// Option is the type alias for the config option.
type Option func(*Options)

// WithList determines the module list command is executed.
func WithList() Option {
	return func(o *Options) {
		o.list = true
	}
}

// WithEdit determines the memory edit command is executed.
func WithEdit() Option {
	return func(o *Options) {
		o.edit = true
	}
}

// NewWithOpts builds a new configuration store from a variety of sources such
// as configuration files, environment variables or command line flags.
func NewWithOpts(options ...Option) *Config {
	opts := &Options{}

	for _, opt := range options {
		opt(opts)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	flagSet := new(pflag.FlagSet)

	c := &Config{
		Console: console.Config{},
		Log:     log.Config{},
		viper:   v,
		flags:   flagSet,
		opts:    opts,
	}

	if opts.list {
		console.AddFlags(flagSet)
	}

	c.addFlags()

	return c
}

// MustViperize adds the flag set to the Cobra command and binds them within the Viper flags.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init setups the configuration state from Viper.
func (c *Config) Init() error {
	c.Log.InitFromViper(c.viper)
	c.DebugPrivilege = c.viper.GetBool(debugPrivilege)
	c.DevicePath = c.viper.GetString(devicePath)

	if c.opts.list {
		c.Console.InitFromViper(c.viper)
		if err := c.tryLoadConsole(); err != nil {
			return err
		}
	}
	return nil
}

// tryLoadConsole overrides the console output config from the config file
// section when one is present.
func (c *Config) tryLoadConsole() error {
	section := c.viper.GetStringMap("output.console")
	if len(section) == 0 {
		return nil
	}
	return decode(section, &c.Console)
}

// TryLoadFile attempts to load the configuration file from the specified path.
func (c *Config) TryLoadFile(file string) error {
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// File returns the config file path.
func (c *Config) File() string { return c.viper.GetString(configFile) }

// Validate ensures that all configuration options provided by the user have
// the expected values. It returns a list of validation errors prefixed with
// the offending configuration property/flag.
func (c *Config) Validate() error {
	file := c.viper.GetString(configFile)
	var out interface{}
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	switch filepath.Ext(file) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &out)
	case ".json":
		err = json.Unmarshal(b, &out)
	default:
		return fmt.Errorf("%s is not a supported config file extension", filepath.Ext(file))
	}
	if err != nil {
		return fmt.Errorf("couldn't read the config file: %v", err)
	}
	valid, errs := validate(out)
	if !valid || len(errs) > 0 {
		return fmt.Errorf("invalid config: %v", multierror.Wrap(errs...))
	}
	return nil
}

func (c *Config) addFlags() {
	c.flags.String(configFile, filepath.Join(os.Getenv("PROGRAMFILES"), "kvasir", "config", "kvasir.yml"), "Indicates the location of the configuration file")
	c.flags.Bool(debugPrivilege, true, "Dictates if the SeDebugPrivilege is injected into Kvasir process' access token")
	if c.opts.edit {
		c.flags.String(devicePath, "", "Designates the control device that receives memory edit requests. Requests are dispatched in-process when empty")
	}
	c.Log.AddFlags(c.flags)
}
