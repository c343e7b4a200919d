// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/stemsplit/internal/log"
)

// lookup resolves key with parse. An unset or empty variable and an
// unparseable value all yield def; the last one is logged as a warning.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")

	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return def
	}

	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", raw).
			Str("default", fmt.Sprint(def)).
			Msg("invalid environment value, using default")
		return def
	}

	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if sensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", raw)
	}
	ev.Msg("using environment variable")
	return v
}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

// ParseString reads key or returns defaultValue.
func ParseString(key, defaultValue string) string {
	return lookup(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseStringWithAlias reads key first and falls back to alias before the default.
func ParseStringWithAlias(key, alias, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return ParseString(key, defaultValue)
	}
	return ParseString(alias, defaultValue)
}

func ParseInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

func ParseInt64(key string, defaultValue int64) int64 {
	return lookup(key, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// ParseDuration reads a Go duration such as "1500ms" or "2m".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

// ParseBool accepts true/false, 1/0 and yes/no in any case.
func ParseBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

func ParseFloat(key string, defaultValue float64) float64 {
	return lookup(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseList reads a comma separated list; empty entries are dropped.
func ParseList(key string, defaultValue []string) []string {
	return lookup(key, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}
