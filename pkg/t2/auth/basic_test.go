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
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testActor struct {
	id string
}

func (a testActor) ID() string {
	return a.id
}

// mapSource resolves actors from a fixed id-to-password map.
type mapSource struct {
	passwords map[string]string
	err       error
}

func (s *mapSource) Lookup(_ context.Context, handle Handle) (Actor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := s.passwords[handle.ActorID]; !ok {
		return nil, nil
	}
	return testActor{id: handle.ActorID}, nil
}

func (s *mapSource) ValidCredentials(actor Actor, handle Handle) bool {
	return s.passwords[actor.ID()] == handle.Credentials
}

func basicAuthz(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestBasicAuthenticate(t *testing.T) {
	source := &mapSource{passwords: map[string]string{"alice": "secret"}}
	b := &Basic{Realm: "Test", Source: source, Validator: source}

	tests := []struct {
		name      string
		authz     string
		wantActor string
	}{
		{
			name:      "valid credentials",
			authz:     basicAuthz("alice", "secret"),
			wantActor: "alice",
		},
		{
			name:  "no authorization header",
			authz: "",
		},
		{
			name:  "wrong scheme",
			authz: "Bearer abc123",
		},
		{
			name:  "bad base64",
			authz: "Basic !!!not-base64!!!",
		},
		{
			name:  "no colon in decoded credentials",
			authz: "Basic " + base64.StdEncoding.EncodeToString([]byte("alicesecret")),
		},
		{
			name:  "empty user",
			authz: basicAuthz("", "secret"),
		},
		{
			name:  "unknown actor",
			authz: basicAuthz("mallory", "secret"),
		},
		{
			name:  "wrong password",
			authz: basicAuthz("alice", "wrong"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/widgets", nil)
			require.NoError(t, err)
			if test.authz != "" {
				r.Header.Set("Authorization", test.authz)
			}

			result, err := b.Authenticate(context.Background(), r)
			require.NoError(t, err)
			require.NotNil(t, result)
			if test.wantActor == "" {
				assert.Nil(t, result.Actor)
				assert.Equal(t, `Basic realm="Test"`, result.Challenge)
				return
			}
			require.NotNil(t, result.Actor)
			assert.Equal(t, test.wantActor, result.Actor.ID())
			assert.Empty(t, result.Challenge)
		})
	}
}

func TestBasicAuthenticateLookupError(t *testing.T) {
	source := &mapSource{err: errors.New("registry down")}
	b := &Basic{Source: source}

	r, err := http.NewRequest(http.MethodGet, "/widgets", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", basicAuthz("alice", "secret"))

	result, err := b.Authenticate(context.Background(), r)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestBasicDefaultRealm(t *testing.T) {
	source := &mapSource{passwords: map[string]string{}}
	b := &Basic{Source: source}

	r, err := http.NewRequest(http.MethodGet, "/widgets", nil)
	require.NoError(t, err)

	result, err := b.Authenticate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, `Basic realm="API"`, result.Challenge)
}

func TestBasicNoValidatorTrustsLookup(t *testing.T) {
	// Without a validator any resolved actor is accepted; the source is
	// expected to verify credentials itself in that configuration.
	source := &mapSource{passwords: map[string]string{"alice": "secret"}}
	b := &Basic{Source: source}

	r, err := http.NewRequest(http.MethodGet, "/widgets", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", basicAuthz("alice", "anything"))

	result, err := b.Authenticate(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, result.Actor)
	assert.Equal(t, "alice", result.Actor.ID())
}
