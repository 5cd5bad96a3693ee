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

package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log verbosity levels, used with logr's V().
const (
	DEFAULT = 1
	VERBOSE = 2
	DEBUG   = 4
	TRACE   = 5
)

// NewLogger creates a production Zap-backed logger at the given verbosity.
// Verbosity v enables logr V-levels up to and including v.
func NewLogger(v int) (logr.Logger, error) {
	cfg := uberzap.NewProductionConfig()
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-v))
	zl, err := cfg.Build(uberzap.AddCaller())
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger creates a new Zap logger using the dev mode.
func NewTestLogger() logr.Logger {
	cfg := uberzap.NewDevelopmentConfig()
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	zl, err := cfg.Build(uberzap.AddCaller())
	if err != nil {
		panic(err)
	}
	return zapr.NewLogger(zl)
}

// NewTestLoggerIntoContext creates a new Zap logger using the dev mode and inserts it into the given context.
func NewTestLoggerIntoContext(ctx context.Context) context.Context {
	return logr.NewContext(ctx, NewTestLogger())
}
