package env

import (
	"os"
	"strings"
)

// Prefix namespaces the service's own variables.
const Prefix = "TIXLEDGER_"

// Get returns the trimmed value of key or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Lookup reads TIXLEDGER_<name> first and then the bare name, so shared
// platform variables such as LOG_FORMAT still apply.
func Lookup(name, fallback string) string {
	if val := Get(Prefix+name, ""); val != "" {
		return val
	}
	return Get(name, fallback)
}
