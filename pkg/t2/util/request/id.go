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

package request

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIdHeaderKey = "X-Request-Id"
)

// ExtractRequestId returns the request's id, minting a new one when the
// client did not send an X-Request-Id header.
func ExtractRequestId(r *http.Request) string {
	if id := r.Header.Get(RequestIdHeaderKey); id != "" {
		return id
	}
	return uuid.NewString()
}
