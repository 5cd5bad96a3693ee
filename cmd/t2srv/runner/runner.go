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

// Package runner parses the serving flags and wires the sample widgets API
// onto the dispatch pipeline.
package runner

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/boylesoftware/thymes2go/pkg/t2/actorcache"
	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
	"github.com/boylesoftware/thymes2go/pkg/t2/call"
	"github.com/boylesoftware/thymes2go/pkg/t2/config"
	"github.com/boylesoftware/thymes2go/pkg/t2/marshal"
	"github.com/boylesoftware/thymes2go/pkg/t2/router"
	"github.com/boylesoftware/thymes2go/pkg/t2/server"
	envutil "github.com/boylesoftware/thymes2go/pkg/t2/util/env"
	logutil "github.com/boylesoftware/thymes2go/pkg/t2/util/logging"
	"github.com/boylesoftware/thymes2go/version"
)

// Runner runs the sample API server.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(ctx context.Context) error {
	var (
		port          = pflag.Int("port", server.DefaultPort, "API server port")
		metricsPort   = pflag.Int("metricsPort", server.DefaultMetricsPort, "Metrics server port")
		secureServing = pflag.Bool("secureServing", server.DefaultSecureServing, "Serve the API over TLS")
		certPath      = pflag.String("certPath", "", "Path to the directory holding tls.crt and tls.key; a self-signed certificate is generated when empty")
		verbosity     = pflag.Int("v", logutil.DEFAULT, "Log verbosity level")

		uriPrefix      = pflag.String("uriPrefix", "", "Prefix stripped from endpoint URIs")
		secureOrigins  = pflag.String("secureOrigins", "", "Pattern of origins granted credentialed cross-origin access")
		publicOrigins  = pflag.String("publicOrigins", "", "Pattern of origins granted access to public endpoints only")
		maxEntitySize  = pflag.Int64("maxRequestEntitySize", config.DefaultMaxRequestEntitySize, "Maximum request entity size in bytes")
		cacheCapacity  = pflag.Int("actorCacheCapacity", config.DefaultActorCacheCapacity, "Actor lookup cache capacity; zero disables caching")
		cacheTTL       = pflag.Duration("actorCacheTTL", config.DefaultActorCacheTTL, "Actor lookup cache TTL; zero disables caching")
		requestTimeout = pflag.Duration("requestTimeout", config.DefaultRequestTimeout, "Per-request processing deadline")
	)
	pflag.Parse()

	logger, err := logutil.NewLogger(*verbosity)
	if err != nil {
		return err
	}
	logger.Info("Starting", "commitSHA", version.CommitSHA, "buildRef", version.BuildRef)

	// Flags win over environment variables; the environment only fills in
	// for flags left unset.
	cfg := config.Default()
	cfg.URIPrefix = *uriPrefix
	cfg.SecureOriginsPattern = *secureOrigins
	cfg.PublicOriginsPattern = *publicOrigins
	cfg.MaxRequestEntitySize = *maxEntitySize
	cfg.ActorCacheCapacity = *cacheCapacity
	cfg.ActorCacheTTL = *cacheTTL
	cfg.RequestTimeout = *requestTimeout
	flags := pflag.CommandLine
	if !flags.Changed("uriPrefix") {
		cfg.URIPrefix = envutil.String("T2_URI_PREFIX", cfg.URIPrefix, logger)
	}
	if !flags.Changed("secureOrigins") {
		cfg.SecureOriginsPattern = envutil.String("T2_SECURE_ORIGINS", cfg.SecureOriginsPattern, logger)
	}
	if !flags.Changed("publicOrigins") {
		cfg.PublicOriginsPattern = envutil.String("T2_PUBLIC_ORIGINS", cfg.PublicOriginsPattern, logger)
	}
	if !flags.Changed("maxRequestEntitySize") {
		cfg.MaxRequestEntitySize = envutil.Int64("T2_MAX_REQUEST_ENTITY_SIZE", cfg.MaxRequestEntitySize, logger)
	}
	if !flags.Changed("actorCacheCapacity") {
		cfg.ActorCacheCapacity = envutil.Int("T2_ACTOR_CACHE_CAPACITY", cfg.ActorCacheCapacity, logger)
	}
	if !flags.Changed("actorCacheTTL") {
		cfg.ActorCacheTTL = envutil.Duration("T2_ACTOR_CACHE_TTL", cfg.ActorCacheTTL, logger)
	}
	if !flags.Changed("requestTimeout") {
		cfg.RequestTimeout = envutil.Duration("T2_REQUEST_TIMEOUT", cfg.RequestTimeout, logger)
	}
	if err := cfg.Validate(); err != nil {
		logutil.Fatal(logger, err, "Invalid configuration")
	}

	registry := newDemoActorRegistry()
	cache := actorcache.New(registry, cfg.ActorCacheCapacity, cfg.ActorCacheTTL, logger)
	authenticator := &auth.Basic{Realm: "Widgets", Source: cache, Validator: registry}
	marshallers := marshal.NewRegistry(marshal.JSON{})

	store := newWidgetStore()
	rtr, err := router.New(cfg.URIPrefix, []router.Route{
		{Pattern: "/widgets", Handler: &widgetCollectionHandler{store: store}},
		{Pattern: "/widgets/([0-9]+)", Handler: &widgetItemHandler{store: store}},
	})
	if err != nil {
		logutil.Fatal(logger, err, "Invalid endpoint configuration")
	}

	srv := server.NewDefaultRunner()
	srv.Port = *port
	srv.MetricsPort = *metricsPort
	srv.SecureServing = *secureServing
	srv.CertPath = *certPath
	srv.RequestTimeout = cfg.RequestTimeout
	srv.Handler = call.New(cfg, rtr, authenticator, marshallers, logger)

	return srv.Start(ctx, logger)
}
