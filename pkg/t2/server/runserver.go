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

// Package server runs the API and metrics HTTP servers.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/boylesoftware/thymes2go/internal/runnable"
	tlsutil "github.com/boylesoftware/thymes2go/internal/tls"
	"github.com/boylesoftware/thymes2go/pkg/t2/metrics"
)

// Default values for CLI flags in main.
const (
	DefaultPort          = 8080  // default for --port
	DefaultMetricsPort   = 9090  // default for --metricsPort
	DefaultSecureServing = false // default for --secureServing
)

// Runner provides methods to manage the API server pair.
type Runner struct {
	Port           int
	MetricsPort    int
	SecureServing  bool
	CertPath       string
	RequestTimeout time.Duration
	Handler        http.Handler
}

// NewDefaultRunner returns a Runner with the default serving knobs.
// The handler must be assigned before Start.
func NewDefaultRunner() *Runner {
	return &Runner{
		Port:          DefaultPort,
		MetricsPort:   DefaultMetricsPort,
		SecureServing: DefaultSecureServing,
	}
}

// Start serves until the context is cancelled, then shuts both servers down
// gracefully.
func (r *Runner) Start(ctx context.Context, logger logr.Logger) error {
	metrics.Register()

	handler := r.Handler
	if r.RequestTimeout > 0 {
		handler = withRequestTimeout(handler, r.RequestTimeout)
	}

	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if r.SecureServing {
		var cert tls.Certificate
		var err error
		if r.CertPath != "" {
			cert, err = tls.LoadX509KeyPair(path.Join(r.CertPath, "tls.crt"), path.Join(r.CertPath, "tls.key"))
		} else {
			// Create tls based credential.
			cert, err = tlsutil.CreateSelfSignedTLSCertificate(logger)
		}
		if err != nil {
			logger.Error(err, "Failed to create TLS certificate")
			return err
		}
		apiSrv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runnable.HTTPServer("api", apiSrv, logger).Start(ctx)
	})
	g.Go(func() error {
		return runnable.HTTPServer("metrics", metricsSrv, logger).Start(ctx)
	})
	return g.Wait()
}

// withRequestTimeout bounds each call's total processing time. The deadline
// propagates through the request context, so a disconnected client or an
// expired budget cancels the call's downstream work.
func withRequestTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
