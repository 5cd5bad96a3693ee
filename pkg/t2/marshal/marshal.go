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

// Package marshal keys serializer/deserializer implementations by request
// and response entity content type.
package marshal

import (
	"mime"
	"strings"
)

// Marshaller serializes and deserializes entities of one content type.
type Marshaller interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// Registry maps media types (parameters stripped, case-insensitive) to
// marshallers. Read-only after construction.
type Registry struct {
	byType map[string]Marshaller
}

// NewRegistry builds a registry over the given marshallers.
func NewRegistry(marshallers ...Marshaller) *Registry {
	r := &Registry{byType: make(map[string]Marshaller, len(marshallers))}
	for _, m := range marshallers {
		r.byType[strings.ToLower(m.ContentType())] = m
	}
	return r
}

// ForType resolves the marshaller for a Content-Type header value. Media
// type parameters (charset etc.) are ignored for the lookup.
func (r *Registry) ForType(contentType string) (Marshaller, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	m, ok := r.byType[mediaType]
	return m, ok
}
