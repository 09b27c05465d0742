// Package env reads environment variables that have to be resolved
// before the envconfig-backed config is loaded, such as the log format
// the logger is bootstrapped with.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
