package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// lookup parses key with parse. Unset keys yield def; malformed values are
// logged and also yield def, so a typo never takes the service down.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, raw, err)
		return def
	}
	return v
}

func GetEnvAsString(key, def string) string {
	return lookup(key, def, func(s string) (string, error) { return s, nil })
}

func GetEnvAsInt(key string, def int) int {
	return lookup(key, def, strconv.Atoi)
}

func GetEnvAsFloat(key string, def float64) float64 {
	return lookup(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// GetEnvAsDuration accepts Go duration syntax, e.g. SESSION_TTL=12h.
func GetEnvAsDuration(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}

func GetEnvAsBool(key string, def bool) bool {
	return lookup(key, def, strconv.ParseBool)
}
