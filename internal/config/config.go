package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the deployment this toolkit ships against. Every value can be
// overridden through the environment, and the CLI layers flag overrides on
// top of that.
const (
	DefaultFrontendURL = "https://bookbarber-6fb.vercel.app"
	DefaultBackendURL  = "https://sixfb-backend.onrender.com"
	DefaultAuthPath    = "/api/v1/auth/login"
	DefaultMarker      = "Sign in to 6FB Platform"

	DefaultMaxAttempts = 20
	DefaultInterval    = 15 * time.Second
	DefaultHTTPTimeout = 10 * time.Second
)

type Config struct {
	FrontendURL string // deployed frontend page, also the origin the backend must allow
	BackendURL  string // backend base URL, no trailing slash
	AuthPath    string // authentication endpoint used by the CORS checks
	Marker      string // substring that proves the new frontend build is live

	MaxAttempts int           // polling attempts before giving up
	Interval    time.Duration // fixed pause between polling attempts
	HTTPTimeout time.Duration // per-request bound for every probe

	LogDir  string // operational logs directory
	SimAddr string // bind address for the local CORS simulator

	SlackWebhook string // optional Slack incoming webhook
	NtfyServer   string // optional ntfy server (empty means ntfy.sh)
	NtfyTopic    string // optional ntfy topic; empty disables ntfy
	NtfyToken    string // optional ntfy bearer token
}

func FromEnv() Config {
	cfg := Config{
		FrontendURL:  getenv("FRONTEND_URL", DefaultFrontendURL),
		BackendURL:   strings.TrimRight(getenv("BACKEND_URL", DefaultBackendURL), "/"),
		AuthPath:     getenv("AUTH_PATH", DefaultAuthPath),
		Marker:       getenv("DEPLOY_MARKER", DefaultMarker),
		MaxAttempts:  DefaultMaxAttempts,
		Interval:     DefaultInterval,
		HTTPTimeout:  DefaultHTTPTimeout,
		LogDir:       getenv("LOG_DIR", "logs"),
		SimAddr:      getenv("SIM_ADDR", "127.0.0.1:8082"),
		SlackWebhook: os.Getenv("SLACK_WEBHOOK"),
		NtfyServer:   os.Getenv("NTFY_SERVER"),
		NtfyTopic:    os.Getenv("NTFY_TOPIC"),
		NtfyToken:    os.Getenv("NTFY_TOKEN"),
	}

	// Numeric tuning; malformed or non-positive values keep the defaults.
	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("POLL_INTERVAL_S"); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			cfg.Interval = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("HTTP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// getenv retrieves an environment variable or returns a fallback value.
// An empty value counts as unset.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// IsHTTPURL reports whether raw parses as an absolute http(s) URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Origin reduces raw to its scheme://host[:port] form, which is what browsers
// send in the Origin header and what CORS allowlists match against. Raw is
// returned unchanged when it does not parse as an absolute URL.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
