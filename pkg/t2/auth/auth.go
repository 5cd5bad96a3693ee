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

// Package auth defines the authentication contracts consumed by the call
// pipeline: the Authenticator that resolves a request to an actor (or a
// challenge), and the ActorRegistry the application plugs in to look actors
// up by their claimed id.
package auth

import (
	"context"
	"net/http"
	"net/url"
)

// Actor is the authenticated principal associated with a request.
type Actor interface {
	ID() string
}

// Handle is the authentication partial extracted from the request's
// credentials before the actor is looked up: the claimed actor id plus
// whatever opaque credential material the authenticator needs to verify it.
type Handle struct {
	ActorID     string
	Credentials string
}

// Result is the outcome of authenticating a request. Actor is nil for an
// unauthenticated request, in which case Challenge carries the value for the
// WWW-Authenticate header should authorization later fail.
type Result struct {
	Actor     Actor
	Challenge string
	Handle    Handle
}

// Registry is the external actor-lookup collaborator. Lookup returns
// (nil, nil) for an unknown actor; an error means the lookup itself failed.
type Registry interface {
	Lookup(ctx context.Context, handle Handle) (Actor, error)
}

// CredentialsValidator is optionally implemented by a Registry that can
// verify a handle's credential material against a resolved actor.
type CredentialsValidator interface {
	ValidCredentials(actor Actor, handle Handle) bool
}

// ActorSource resolves a handle to an actor. The actor lookup cache
// implements it in front of a Registry.
type ActorSource interface {
	Lookup(ctx context.Context, handle Handle) (Actor, error)
}

// HeaderWriter is the slice of the response surface an Authenticator may
// write auth-specific headers through.
type HeaderWriter interface {
	SetHeader(name string, value any)
}

// Authenticator resolves a request to an authentication result and gets a
// chance to attach auth-specific headers to every response.
//
// An unauthenticated request is an ordinary Result with a nil Actor, not an
// error. An error return means the authentication machinery itself failed.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Result, error)
	AddResponseAuthInfo(w HeaderWriter, result *Result, actor Actor, requestURL *url.URL, requestHeader http.Header)
}
