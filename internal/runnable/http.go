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

package runnable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

// Runnable is a unit of work driven by a context.
type Runnable interface {
	Start(ctx context.Context) error
}

// Func adapts a function to the Runnable interface.
type Func func(ctx context.Context) error

func (f Func) Start(ctx context.Context) error {
	return f(ctx)
}

// HTTPServer converts the given HTTP server into a runnable.
// The server name is just being used for logging.
func HTTPServer(name string, srv *http.Server, logger logr.Logger) Runnable {
	return Func(func(ctx context.Context) error {
		log := logger.WithValues("name", name)
		log.Info("HTTP server starting", "addr", srv.Addr)

		// Shutdown on context closed.
		// Make sure the goroutine does not leak.
		doneCh := make(chan struct{})
		defer close(doneCh)
		go func() {
			select {
			case <-ctx.Done():
				log.Info("HTTP server shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error(err, "HTTP server shutdown failed")
				}
			case <-doneCh:
			}
		}()

		// Keep serving until terminated.
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed - %w", err)
		}
		log.Info("HTTP server terminated")
		return nil
	})
}
