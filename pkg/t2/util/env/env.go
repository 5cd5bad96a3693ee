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

// Package env reads typed configuration values from environment variables.
// An unset or unparseable variable falls back to the default; a parse
// failure is logged, never fatal.
package env

import (
	"os"
	"strconv"
	"time"

	"github.com/go-logr/logr"
)

func lookup[T any](key string, defaultVal T, parse func(string) (T, error), logger logr.Logger) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	val, err := parse(raw)
	if err != nil {
		logger.Info("Ignoring unparseable environment variable",
			"key", key, "rawValue", raw, "error", err, "defaultValue", defaultVal)
		return defaultVal
	}
	return val
}

// Int reads an int environment variable.
func Int(key string, defaultVal int, logger logr.Logger) int {
	return lookup(key, defaultVal, strconv.Atoi, logger)
}

// Int64 reads an int64 environment variable.
func Int64(key string, defaultVal int64, logger logr.Logger) int64 {
	return lookup(key, defaultVal, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	}, logger)
}

// Duration reads a time.Duration environment variable in Go duration syntax.
func Duration(key string, defaultVal time.Duration, logger logr.Logger) time.Duration {
	return lookup(key, defaultVal, time.ParseDuration, logger)
}

// String reads a string environment variable.
func String(key string, defaultVal string, logger logr.Logger) string {
	return lookup(key, defaultVal, func(s string) (string, error) { return s, nil }, logger)
}
