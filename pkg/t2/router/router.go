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

// Package router resolves request paths to registered endpoints.
//
// All endpoint URI patterns are compiled into one master alternation, so a
// lookup costs a single regexp execution regardless of how many endpoints
// are registered. The price is that the route set is frozen once the router
// is built.
package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boylesoftware/thymes2go/pkg/t2/endpoint"
	errutil "github.com/boylesoftware/thymes2go/pkg/t2/util/error"
)

// Route binds an endpoint URI pattern (an unanchored regexp whose capture
// groups are the URI parameters) to its handler.
type Route struct {
	Pattern string
	Handler endpoint.Handler
}

// Match is the result of a successful lookup. ResourceURI is the request
// path with the configured prefix stripped.
type Match struct {
	Handler     endpoint.Handler
	ResourceURI string
	Params      []endpoint.URIParam
}

// target records, per endpoint, the index of its enclosing capture group in
// the combined match and how many of the following groups are its own
// URI parameters.
type target struct {
	handler endpoint.Handler
	group   int
	params  int
}

// Router holds the compiled master expression. Immutable after New.
type Router struct {
	prefix  string
	re      *regexp.Regexp
	targets []target
}

// New validates every route pattern and compiles the master expression:
// the quoted prefix followed by an anchored alternation in which branch i is
// the endpoint's own pattern wrapped in one enclosing capture group.
//
// An invalid pattern is a configuration error and fails construction; no
// request is ever served against a partially built route set.
func New(prefix string, routes []Route) (*Router, error) {
	r := &Router{prefix: prefix}
	if len(routes) == 0 {
		return r, nil
	}

	var master strings.Builder
	master.WriteString("^")
	master.WriteString(regexp.QuoteMeta(prefix))
	master.WriteString("(?:")
	group := 1
	for i, route := range routes {
		own, err := regexp.Compile(route.Pattern)
		if err != nil {
			return nil, errutil.Error{
				Code: errutil.BadConfiguration,
				Msg:  fmt.Sprintf("invalid URI pattern %q: %v", route.Pattern, err),
			}
		}
		if route.Handler == nil {
			return nil, errutil.Error{
				Code: errutil.BadConfiguration,
				Msg:  fmt.Sprintf("no handler for URI pattern %q", route.Pattern),
			}
		}
		if i > 0 {
			master.WriteString("|")
		}
		master.WriteString("(")
		master.WriteString(route.Pattern)
		master.WriteString(")")
		r.targets = append(r.targets, target{
			handler: route.Handler,
			group:   group,
			params:  own.NumSubexp(),
		})
		group += 1 + own.NumSubexp()
	}
	master.WriteString(")$")

	re, err := regexp.Compile(master.String())
	if err != nil {
		return nil, errutil.Error{
			Code: errutil.BadConfiguration,
			Msg:  fmt.Sprintf("cannot combine URI patterns: %v", err),
		}
	}
	r.re = re
	return r, nil
}

// Lookup executes the master expression against the path. Exactly one
// branch's enclosing group participates in a match, identifying the
// endpoint; the following groups are sliced out as its URI parameters, with
// non-participating groups preserved as absent.
func (r *Router) Lookup(path string) (Match, bool) {
	if r.re == nil {
		return Match{}, false
	}
	m := r.re.FindStringSubmatchIndex(path)
	if m == nil {
		return Match{}, false
	}
	for _, t := range r.targets {
		if m[2*t.group] < 0 {
			continue
		}
		params := make([]endpoint.URIParam, t.params)
		for k := range params {
			g := t.group + 1 + k
			if start := m[2*g]; start >= 0 {
				params[k] = endpoint.URIParam{Value: path[start:m[2*g+1]], Valid: true}
			}
		}
		return Match{
			Handler:     t.handler,
			ResourceURI: strings.TrimPrefix(path, r.prefix),
			Params:      params,
		}, true
	}
	return Match{}, false
}
