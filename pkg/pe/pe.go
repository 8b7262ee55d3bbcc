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

package pe

import (
	"expvar"
	"fmt"
	"time"

	peparser "github.com/saferwall/pe"
	peparserlog "github.com/saferwall/pe/log"
	log "github.com/sirupsen/logrus"
)

var (
	parsedImages   = expvar.NewInt("pe.parsed.images")
	parserWarnings = expvar.NewMap("pe.parser.warnings")
)

// Image captures the on-disk header facts an enumerated module is checked
// against. The preferred base and the size come from the optional header, so
// a relocated module legitimately reports a different runtime base.
type Image struct {
	// ImageBase is the preferred load address.
	ImageBase uint64
	// EntryPoint is the entry point RVA.
	EntryPoint uint32
	// SizeOfImage is the size of the mapped image.
	SizeOfImage uint32
	// Is64 designates a native pointer-width image.
	Is64 bool
	// LinkTime is the image link timestamp.
	LinkTime time.Time
}

// Inspect parses the executable headers of the image at the given path. Only
// the DOS and NT headers are touched, data directories are skipped entirely.
func Inspect(path string) (Image, error) {
	pe, err := peparser.New(path, &peparser.Options{
		DisableCertValidation:     true,
		OmitIATDirectory:          true,
		OmitSecurityDirectory:     true,
		OmitExceptionDirectory:    true,
		OmitTLSDirectory:          true,
		OmitCLRHeaderDirectory:    true,
		OmitCLRMetadata:           true,
		OmitDelayImportDirectory:  true,
		OmitBoundImportDirectory:  true,
		OmitArchitectureDirectory: true,
		OmitDebugDirectory:        true,
		OmitRelocDirectory:        true,
		OmitResourceDirectory:     true,
		OmitImportDirectory:       true,
		OmitExportDirectory:       true,
		OmitLoadConfigDirectory:   true,
		OmitGlobalPtrDirectory:    true,
		Logger:                    &Logger{},
	})
	if err != nil {
		return Image{}, err
	}
	defer pe.Close()

	if err := pe.ParseDOSHeader(); err != nil {
		return Image{}, err
	}
	if err := pe.ParseNTHeader(); err != nil {
		return Image{}, err
	}

	timestamp := pe.NtHeader.FileHeader.TimeDateStamp
	img := Image{
		Is64:     pe.Is64,
		LinkTime: time.Unix(int64(timestamp), 0).UTC(),
	}
	switch hdr := pe.NtHeader.OptionalHeader.(type) {
	case peparser.ImageOptionalHeader64:
		img.ImageBase = hdr.ImageBase
		img.EntryPoint = hdr.AddressOfEntryPoint
		img.SizeOfImage = hdr.SizeOfImage
	case peparser.ImageOptionalHeader32:
		img.ImageBase = uint64(hdr.ImageBase)
		img.EntryPoint = hdr.AddressOfEntryPoint
		img.SizeOfImage = hdr.SizeOfImage
	}

	parsedImages.Add(1)
	return img, nil
}

// Logger is the adapter for routing PE package logs to logrus.
type Logger struct{}

func (l Logger) Log(level peparserlog.Level, keyvals ...interface{}) error {
	switch level {
	case peparserlog.LevelDebug:
		log.Debug(keyvals[1:]...)
	case peparserlog.LevelWarn:
		parserWarnings.Add(fmt.Sprintf("%s", keyvals[1:]), 1)
	case peparserlog.LevelError, peparserlog.LevelFatal:
		log.Error(keyvals[1:]...)
	default:
		log.Info(keyvals[1:]...)
	}
	return nil
}
