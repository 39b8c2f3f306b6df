package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// TallyBaseURL is the Tally HTTP gateway endpoint. Tally listens on a
// single local port and serves every request on "/".
//
// Set via env:
// - TALLY_BASE_URL (default http://localhost:9000)
func TallyBaseURL() string {
	v := strings.TrimSpace(os.Getenv("TALLY_BASE_URL"))
	if v == "" {
		return "http://localhost:9000"
	}
	return strings.TrimRight(v, "/")
}

// TallyDataTimeout bounds data operations (ledger lists, voucher pushes,
// daybook fetches). Tally can take tens of seconds on large companies.
//
// Set via env:
// - TALLY_HTTP_TIMEOUT_SECONDS (default 60)
func TallyDataTimeout() time.Duration {
	return time.Duration(intFromEnv("TALLY_HTTP_TIMEOUT_SECONDS", 60)) * time.Second
}

// TallyConnectTimeout bounds the connectivity probe only.
//
// Set via env:
// - TALLY_CONNECT_TIMEOUT_SECONDS (default 5)
func TallyConnectTimeout() time.Duration {
	return time.Duration(intFromEnv("TALLY_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second
}

// TallySimulated switches new clients to the in-memory simulated backend
// when no real Tally instance is available (demo / CI).
//
// Set via env:
// - TALLY_SIMULATED=true
func TallySimulated() bool {
	return envBoolDefault("TALLY_SIMULATED", false)
}

// SyncWorkerCount bounds concurrent in-flight voucher pushes per batch.
// Tally is a single local service; more than a few workers buys nothing.
//
// Set via env:
// - TALLY_SYNC_WORKERS (default 2, clamped to 1..4)
func SyncWorkerCount() int {
	n := intFromEnv("TALLY_SYNC_WORKERS", 2)
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
