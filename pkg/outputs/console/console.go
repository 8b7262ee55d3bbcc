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
	"bufio"
	"expvar"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kvasirlabs/kvasir/pkg/loader"
)

var (
	consoleErrors  = expvar.NewInt("output.console.errors")
	consoleModules = expvar.NewInt("output.console.modules")
)

type format string

const (
	// plain renders one line per record: base address, entry point,
	// module name and full path, in that fixed order
	plain format = "plain"
	// pretty renders the records as a table once the walk completes
	pretty format = "pretty"
)

// Console renders module records to the standard output. The plain format
// streams each record as it arrives; the pretty format accumulates table
// rows and renders on Close.
type Console struct {
	writer *bufio.Writer
	format format
	tbl    table.Writer
}

// New builds the console sink from config options.
func New(cfg Config) *Console {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter builds the console sink rendering to the given writer.
func NewWithWriter(w io.Writer, cfg Config) *Console {
	c := &Console{
		writer: bufio.NewWriterSize(w, 8*1024),
		format: format(cfg.Format),
	}
	if c.format == pretty {
		t := table.NewWriter()
		t.SetOutputMirror(c.writer)
		t.AppendHeader(table.Row{"Base", "Entry point", "Size", "Module", "Path"})
		t.SetStyle(table.StyleLight)
		c.tbl = t
	}
	return c
}

// Emit writes one module record. It satisfies the enumerator sink contract.
func (c *Console) Emit(m loader.Module) error {
	consoleModules.Add(1)
	if c.format == pretty {
		c.tbl.AppendRow(table.Row{
			fmt.Sprintf("%016x", m.Base),
			fmt.Sprintf("%016x", m.EntryPoint),
			humanize.Bytes(m.Size),
			m.Name,
			m.Path,
		})
		return nil
	}
	_, err := fmt.Fprintf(c.writer, "base: %016x\tentrypoint: %016x\tmodule: %s\tpath: %s\n",
		m.Base, m.EntryPoint, m.Name, m.Path)
	if err != nil {
		consoleErrors.Add(1)
	}
	return err
}

// Header prints the resolved process identity above the module list.
func (c *Console) Header(pid uint32, mode, path string) {
	_, _ = fmt.Fprintf(c.writer, "pid: %d (%s)\timage: %s\n\n", pid, mode, path)
}

// Close renders any pending table rows and flushes the output.
func (c *Console) Close() error {
	if c.format == pretty && c.tbl != nil {
		c.tbl.Render()
	}
	if err := c.writer.Flush(); err != nil {
		consoleErrors.Add(1)
		return err
	}
	return nil
}
