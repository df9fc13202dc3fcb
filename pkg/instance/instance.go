package instance

import (
	"os"

	"github.com/angelmondragon/tixledger/pkg/env"
)

const idEnvKey = "INSTANCE_ID"

// GetID names this process for logs. It prefers TIXLEDGER_INSTANCE_ID (or
// INSTANCE_ID), then the hostname.
func GetID() string {
	if id := env.Lookup(idEnvKey, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
