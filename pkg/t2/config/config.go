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

// Package config holds the application configuration, constructed once at
// startup and passed down explicitly. There is no ambient global state.
package config

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/multierr"

	"github.com/boylesoftware/thymes2go/pkg/t2/cors"
)

// Defaults for the configuration knobs.
const (
	DefaultMaxRequestEntitySize = int64(2048)
	DefaultActorCacheCapacity   = 100
	DefaultActorCacheTTL        = 5 * time.Second
	DefaultRequestTimeout       = 30 * time.Second
)

// Config is the application's dispatch configuration. Validate must be
// called once before use; it compiles the origin patterns and reports every
// problem at once.
type Config struct {
	// URIPrefix is stripped from matched request paths to produce the
	// resource URI handed to handlers.
	URIPrefix string

	// SecureOriginsPattern matches origins granted credentialed
	// cross-origin access. Empty means any origin is allowed without
	// credentials.
	SecureOriginsPattern string

	// PublicOriginsPattern matches origins granted access to public
	// endpoints only. Only meaningful alongside SecureOriginsPattern.
	PublicOriginsPattern string

	// MaxRequestEntitySize caps the request entity size in bytes.
	MaxRequestEntitySize int64

	// ActorCacheCapacity and ActorCacheTTL bound the actor lookup cache.
	// Zero or negative values disable caching.
	ActorCacheCapacity int
	ActorCacheTTL      time.Duration

	// RequestTimeout bounds the total processing time of one call.
	RequestTimeout time.Duration

	secureOrigins *regexp.Regexp
	publicOrigins *regexp.Regexp
}

// Default returns a Config populated with the default knob values.
func Default() *Config {
	return &Config{
		MaxRequestEntitySize: DefaultMaxRequestEntitySize,
		ActorCacheCapacity:   DefaultActorCacheCapacity,
		ActorCacheTTL:        DefaultActorCacheTTL,
		RequestTimeout:       DefaultRequestTimeout,
	}
}

// Validate checks the configuration and compiles the origin patterns,
// aggregating every problem into one error. A configuration error is a hard
// startup failure; no request is served against an invalid configuration.
func (c *Config) Validate() error {
	var errs error

	if c.MaxRequestEntitySize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("maxRequestEntitySize must be positive, got %d", c.MaxRequestEntitySize))
	}
	if c.RequestTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("requestTimeout must not be negative, got %s", c.RequestTimeout))
	}

	compile := func(name, pattern string) *regexp.Regexp {
		if pattern == "" {
			return nil
		}
		// Origin patterns match the whole Origin header value.
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid %s pattern %q: %w", name, pattern, err))
			return nil
		}
		return re
	}
	c.secureOrigins = compile("secureOrigins", c.SecureOriginsPattern)
	c.publicOrigins = compile("publicOrigins", c.PublicOriginsPattern)

	return errs
}

// CORSPolicy returns the compiled origin classification policy. Only valid
// after Validate.
func (c *Config) CORSPolicy() cors.Policy {
	return cors.Policy{Secure: c.secureOrigins, Public: c.publicOrigins}
}
