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

package multierror

import "strings"

// Wrap collapses a series of errors into a single error value. Nil errors
// are elided and a nil error is returned when nothing remains.
func Wrap(errs ...error) error {
	var e aggregate
	for _, err := range errs {
		if err != nil {
			e = append(e, err)
		}
	}
	if len(e) == 0 {
		return nil
	}
	return e
}

type aggregate []error

func (e aggregate) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}
