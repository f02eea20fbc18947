// Package config reads typed settings from environment variables.
//
// Every getter treats an unset or empty variable as absent and returns the
// default. A value that does not parse is logged at warn level and also
// yields the default, so a typo never stops the service from starting.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup parses the variable named key with parse, falling back to def.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring malformed environment variable",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// GetEnvString returns the variable verbatim, or def when it is unset or empty.
func GetEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt parses a base-10 integer, e.g. PORT=8000.
func GetEnvInt(key string, def int) int {
	return lookup(key, def, strconv.Atoi)
}

// GetEnvFloat parses a float64, e.g. MODEL_TEMPERATURE=0.7.
func GetEnvFloat(key string, def float64) float64 {
	return lookup(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool accepts the forms strconv.ParseBool does (1, t, true, 0, f, false, ...).
func GetEnvBool(key string, def bool) bool {
	return lookup(key, def, strconv.ParseBool)
}

// GetEnvDuration parses a Go duration string such as "90s" or "1h30m".
func GetEnvDuration(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}

// GetEnvStringList splits a comma-separated value, trimming each item and
// dropping empty ones. A list that ends up empty returns def.
//
//	CORS_ALLOWED_ORIGINS="http://localhost:3000, https://quiz.example.com"
func GetEnvStringList(key string, def []string) []string {
	var items []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return def
	}
	return items
}
