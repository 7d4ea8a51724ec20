/*
 * Copyright (c) "Graphwire"
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package packstream

import (
	"fmt"
	"reflect"
)

// IoError wraps a failure of the underlying reader or writer.
type IoError struct {
	inner error
}

func (e *IoError) Error() string {
	return e.inner.Error()
}

func (e *IoError) Unwrap() error {
	return e.inner
}

// OverflowError indicates a value too large for its wire representation.
type OverflowError struct {
	msg string
}

func (e *OverflowError) Error() string {
	return e.msg
}

// UnsupportedTypeError indicates a value of a type packstream cannot encode.
type UnsupportedTypeError struct {
	t reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("packstream cannot encode type %s", e.t)
}

// IllegalFormatError indicates a malformed byte sequence on decode.
type IllegalFormatError struct {
	msg string
}

func (e *IllegalFormatError) Error() string {
	return e.msg
}
