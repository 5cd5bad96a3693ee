/*
Copyright 2026 Boyle Software, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package error

import (
	"fmt"
	"net/http"
)

// Error is an error struct for errors produced while dispatching an endpoint
// call.
type Error struct {
	Code string
	Msg  string
}

const (
	Unknown            = "Unknown"
	BadRequest         = "BadRequest"
	NotFound           = "NotFound"
	MethodNotAllowed   = "MethodNotAllowed"
	NotImplemented     = "NotImplemented"
	Unauthenticated    = "Unauthenticated"
	Forbidden          = "Forbidden"
	EntityTooLarge     = "EntityTooLarge"
	UnsupportedMedia   = "UnsupportedMedia"
	Internal           = "Internal"
	ServiceUnavailable = "ServiceUnavailable"
	BadConfiguration   = "BadConfiguration"
)

// Error returns a string version of the error.
func (e Error) Error() string {
	return fmt.Sprintf("thymes2: %s - %s", e.Code, e.Msg)
}

// CanonicalCode returns the error's ErrorCode.
func CanonicalCode(err error) string {
	e, ok := err.(Error)
	if ok {
		return e.Code
	}
	return Unknown
}

// CanonicalForStatus maps an HTTP error status code back to its canonical
// error code. Unrecognized statuses map to Internal.
func CanonicalForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return BadRequest
	case http.StatusUnauthorized:
		return Unauthenticated
	case http.StatusForbidden:
		return Forbidden
	case http.StatusNotFound:
		return NotFound
	case http.StatusMethodNotAllowed:
		return MethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return EntityTooLarge
	case http.StatusUnsupportedMediaType:
		return UnsupportedMedia
	case http.StatusNotImplemented:
		return NotImplemented
	case http.StatusServiceUnavailable:
		return ServiceUnavailable
	default:
		return Internal
	}
}

// HTTPStatus maps a canonical error code to the HTTP status code sent to the
// caller. Unrecognized codes map to 500.
func HTTPStatus(code string) int {
	switch code {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case NotImplemented:
		return http.StatusNotImplemented
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case EntityTooLarge:
		return http.StatusRequestEntityTooLarge
	case UnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
