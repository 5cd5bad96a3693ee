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

package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryForType(t *testing.T) {
	registry := NewRegistry(JSON{})

	tests := []struct {
		name        string
		contentType string
		wantOK      bool
	}{
		{name: "exact type", contentType: "application/json", wantOK: true},
		{name: "parameters stripped", contentType: "application/json; charset=utf-8", wantOK: true},
		{name: "case insensitive", contentType: "Application/JSON", wantOK: true},
		{name: "unregistered type", contentType: "text/xml", wantOK: false},
		{name: "malformed header falls back to bare type", contentType: "application/json; charset", wantOK: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, ok := registry.ForType(test.contentType)
			assert.Equal(t, test.wantOK, ok)
			if ok {
				assert.Equal(t, ContentTypeJSON, m.ContentType())
			}
		})
	}
}

func TestJSONUnmarshal(t *testing.T) {
	v, err := JSON{}.Unmarshal([]byte(`{"name":"gear","count":3}`))
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gear", obj["name"])
	assert.Equal(t, float64(3), obj["count"])

	_, err = JSON{}.Unmarshal([]byte(`{broken`))
	assert.Error(t, err)
}

func TestJSONMarshal(t *testing.T) {
	data, err := JSON{}.Marshal(map[string]string{"name": "gear"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"gear"}`, string(data))
}
