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

var schema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",

	"type": "object",
	"properties": {
		"logging": {
			"type": "object",
			"properties": {
				"level":		{"type": "string", "enum": ["trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"]},
				"max-age":		{"type": "integer", "minimum": 0},
				"max-backups":	{"type": "integer", "minimum": 0},
				"max-size":		{"type": "integer", "minimum": 0},
				"formatter":	{"type": "string", "enum": ["json", "text"]},
				"path":			{"type": "string"},
				"log-stdout":	{"type": "boolean"}
			},
			"additionalProperties": false
		},
		"output": {
			"type": "object",
			"properties": {
				"console": {
					"type": "object",
					"properties": {
						"format": {"type": "string", "enum": ["plain", "pretty"]}
					},
					"additionalProperties": false
				}
			},
			"additionalProperties": false
		},
		"device": {
			"type": "object",
			"properties": {
				"path": {"type": "string"}
			},
			"additionalProperties": false
		},
		"debug-privilege": {"type": "boolean"}
	},
	"additionalProperties": false
}
`
