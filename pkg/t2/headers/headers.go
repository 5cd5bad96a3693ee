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

// Package headers implements the response header value registry. Every header
// name is bound to one of a closed set of combination policies that decides
// how repeated writes to the same header merge.
package headers

import (
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Policy selects the combination semantics for a header value.
type Policy int

const (
	// Default is last-write-wins. Dates render as HTTP date strings, all
	// other inputs are stringified.
	Default Policy = iota
	// NameList accumulates a de-duplicated, Title-Cased set of header names
	// from comma-separated input and renders them comma-joined.
	NameList
	// MethodList accumulates a de-duplicated, upper-cased set of HTTP method
	// tokens from comma-separated input and renders them comma-joined.
	MethodList
)

// policyByName keys on the lower-cased header name.
var policyByName = map[string]Policy{
	"vary":                          NameList,
	"access-control-allow-headers":  NameList,
	"access-control-expose-headers": NameList,
	"allow":                         MethodList,
	"access-control-allow-methods":  MethodList,
}

// PolicyFor returns the combination policy registered for the header name.
func PolicyFor(name string) Policy {
	return policyByName[strings.ToLower(name)]
}

// Value holds the accumulated value of a single response header.
type Value struct {
	policy Policy
	text   string
	order  []string
	seen   map[string]struct{}
}

// NewValue creates a fresh, empty value with the given policy.
func NewValue(policy Policy) *Value {
	return &Value{policy: policy}
}

// NewValueFor creates a fresh, empty value for the named header.
func NewValueFor(name string) *Value {
	return NewValue(PolicyFor(name))
}

// Set combines val into the value per the policy. For Default the previous
// value is replaced; for the list policies tokens are merged into the set.
func (v *Value) Set(val any) {
	switch v.policy {
	case NameList:
		v.merge(val, textproto.CanonicalMIMEHeaderKey)
	case MethodList:
		v.merge(val, strings.ToUpper)
	default:
		v.text = formatValue(val)
	}
}

func (v *Value) merge(val any, normalize func(string) string) {
	if v.seen == nil {
		v.seen = make(map[string]struct{})
	}
	for _, token := range strings.Split(formatValue(val), ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		token = normalize(token)
		if _, dup := v.seen[token]; dup {
			continue
		}
		v.seen[token] = struct{}{}
		v.order = append(v.order, token)
	}
}

// Empty reports whether nothing has been set on the value yet.
func (v *Value) Empty() bool {
	return v.text == "" && len(v.order) == 0
}

// String renders the value for the wire.
func (v *Value) String() string {
	if v.policy == Default {
		return v.text
	}
	return strings.Join(v.order, ", ")
}

func formatValue(val any) string {
	switch tv := val.(type) {
	case string:
		return tv
	case time.Time:
		return tv.UTC().Format(http.TimeFormat)
	case fmt.Stringer:
		return tv.String()
	default:
		return fmt.Sprint(tv)
	}
}
