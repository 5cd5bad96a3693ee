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

package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultRealm = "API"

// Basic is an HTTP Basic authenticator. Malformed or unverifiable
// credentials yield an unauthenticated result, never an error; only a failed
// actor lookup is an error.
type Basic struct {
	Realm     string
	Source    ActorSource
	Validator CredentialsValidator
}

var _ Authenticator = (*Basic)(nil)

func (b *Basic) Authenticate(ctx context.Context, r *http.Request) (*Result, error) {
	realm := b.Realm
	if realm == "" {
		realm = defaultRealm
	}
	anonymous := &Result{Challenge: fmt.Sprintf("Basic realm=%q", realm)}

	authz := r.Header.Get("Authorization")
	if authz == "" {
		return anonymous, nil
	}
	scheme, rest, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return anonymous, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
	if err != nil {
		return anonymous, nil
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found || user == "" {
		return anonymous, nil
	}

	handle := Handle{ActorID: user, Credentials: pass}
	actor, err := b.Source.Lookup(ctx, handle)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return anonymous, nil
	}
	if b.Validator != nil && !b.Validator.ValidCredentials(actor, handle) {
		return anonymous, nil
	}
	return &Result{Actor: actor, Handle: handle}, nil
}

// AddResponseAuthInfo is a no-op: Basic carries no response-side auth state.
func (b *Basic) AddResponseAuthInfo(_ HeaderWriter, _ *Result, _ Actor, _ *url.URL, _ http.Header) {
}
