// Package env holds small helpers for reading process environment values
// before the typed configuration has been loaded.
package env

import "os"

// Get returns the named environment variable, or fallback when it is unset
// or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
