package instance

import (
	"os"
	"testing"

	"github.com/angelmondragon/tixledger/pkg/env"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(env.Prefix+idEnvKey, "cron-1")
	if got := GetID(); got != "cron-1" {
		t.Fatalf("expected cron-1, got %q", got)
	}
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv(env.Prefix+idEnvKey, "")
	t.Setenv(idEnvKey, "")
	host, err := os.Hostname()
	if err != nil || host == "" {
		t.Skip("hostname unavailable")
	}
	if got := GetID(); got != host {
		t.Fatalf("expected %q, got %q", host, got)
	}
}
