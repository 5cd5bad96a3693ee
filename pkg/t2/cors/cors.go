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

// Package cors classifies request origins against the application's
// configured origin patterns. The classification only decides which
// Access-Control response headers are emitted; a disallowed origin still
// receives the response with its normal status and body, the blocking
// happens in the browser.
package cors

import "regexp"

// MaxAgeSeconds is the Access-Control-Max-Age granted on preflight
// responses, amortizing repeat preflights from the same client.
const MaxAgeSeconds = 1728000

// Policy holds the compiled origin patterns. Secure origins are granted
// credentialed access. Public origins are only meaningful alongside a secure
// pattern and only grant access to public endpoints.
type Policy struct {
	Secure *regexp.Regexp
	Public *regexp.Regexp
}

// Access is the outcome of classifying a request origin.
type Access int

const (
	// AccessNone means the request carried no Origin header; no
	// Access-Control headers are emitted.
	AccessNone Access = iota
	// AccessBlocked means the origin matched no pattern; no
	// Access-Control-Allow-Origin is emitted.
	AccessBlocked
	// AccessAnyOrigin grants "*" without credentials.
	AccessAnyOrigin
	// AccessOrigin grants the specific origin without credentials.
	AccessOrigin
	// AccessOriginCredentialed grants the specific origin with credentials.
	AccessOriginCredentialed
)

// Classify decides the cross-origin access granted to the given origin
// against an endpoint that is or is not public.
func (p Policy) Classify(origin string, endpointPublic bool) Access {
	if origin == "" {
		return AccessNone
	}
	if endpointPublic && p.Public != nil && p.Public.MatchString(origin) {
		return AccessOrigin
	}
	if p.Secure == nil {
		return AccessAnyOrigin
	}
	if p.Secure.MatchString(origin) {
		return AccessOriginCredentialed
	}
	return AccessBlocked
}
