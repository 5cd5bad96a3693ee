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

package cors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	secure := regexp.MustCompile(`^https://app\.example\.com$`)
	public := regexp.MustCompile(`^https://(www\.)?example\.com$`)

	tests := []struct {
		name   string
		policy Policy
		origin string
		public bool
		want   Access
	}{
		{
			name:   "no origin header",
			policy: Policy{Secure: secure, Public: public},
			origin: "",
			want:   AccessNone,
		},
		{
			name:   "no patterns grants any origin",
			policy: Policy{},
			origin: "https://evil.example",
			want:   AccessAnyOrigin,
		},
		{
			name:   "secure origin gets credentialed access",
			policy: Policy{Secure: secure},
			origin: "https://app.example.com",
			want:   AccessOriginCredentialed,
		},
		{
			name:   "unmatched origin is blocked",
			policy: Policy{Secure: secure, Public: public},
			origin: "https://evil.example",
			want:   AccessBlocked,
		},
		{
			name:   "public origin on public endpoint",
			policy: Policy{Secure: secure, Public: public},
			origin: "https://www.example.com",
			public: true,
			want:   AccessOrigin,
		},
		{
			name:   "public origin on protected endpoint is blocked",
			policy: Policy{Secure: secure, Public: public},
			origin: "https://www.example.com",
			want:   AccessBlocked,
		},
		{
			name:   "secure origin on public endpoint stays credentialed",
			policy: Policy{Secure: secure, Public: public},
			origin: "https://app.example.com",
			public: true,
			want:   AccessOriginCredentialed,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.policy.Classify(test.origin, test.public))
		})
	}
}
