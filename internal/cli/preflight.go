package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/sixfb/deploycheck/internal/config"
	"github.com/sixfb/deploycheck/internal/report"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Audit the environment before running checks",
	Long: `preflight validates the resolved configuration: URLs parse, the deploy
marker is set, notification channels are either configured or cleanly
disabled. It exits non-zero on hard failures so CI can gate on it.`,
	RunE: runPreflight,
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

func runPreflight(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	p := report.New(os.Stdout)

	var failures error
	fail := func(format string, fargs ...any) {
		p.Fail(format, fargs...)
		failures = multierr.Append(failures, fmt.Errorf(format, fargs...))
	}

	if config.IsHTTPURL(cfg.FrontendURL) {
		p.OK("FRONTEND_URL=%s", cfg.FrontendURL)
		p.Info("origin sent to the backend: %s", config.Origin(cfg.FrontendURL))
	} else {
		fail("FRONTEND_URL %q is not an http(s) URL", cfg.FrontendURL)
	}
	if config.IsHTTPURL(cfg.BackendURL) {
		p.OK("BACKEND_URL=%s", cfg.BackendURL)
	} else {
		fail("BACKEND_URL %q is not an http(s) URL", cfg.BackendURL)
	}
	if strings.TrimSpace(cfg.Marker) == "" {
		fail("DEPLOY_MARKER is empty (the watcher would match every page)")
	} else {
		p.OK("DEPLOY_MARKER=%q", cfg.Marker)
	}
	if strings.HasPrefix(cfg.AuthPath, "/") {
		p.OK("AUTH_PATH=%s", cfg.AuthPath)
	} else {
		fail("AUTH_PATH %q must start with /", cfg.AuthPath)
	}
	// FromEnv keeps the defaults for malformed numbers, so audit the raw values.
	budgetOK := true
	for _, name := range []string{"MAX_ATTEMPTS", "POLL_INTERVAL_S", "HTTP_TIMEOUT_MS"} {
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err != nil || n <= 0 {
			fail("%s=%q is not a positive integer", name, raw)
			budgetOK = false
		}
	}
	if budgetOK {
		p.OK("polling budget: %d attempt(s), %s apart", cfg.MaxAttempts, cfg.Interval)
	}

	if cfg.SlackWebhook == "" {
		p.Warn("SLACK_WEBHOOK empty, Slack notifications disabled")
	} else if config.IsHTTPURL(cfg.SlackWebhook) {
		p.OK("SLACK_WEBHOOK present")
	} else {
		fail("SLACK_WEBHOOK is set but not an http(s) URL")
	}
	if cfg.NtfyTopic == "" {
		p.Warn("NTFY_TOPIC empty, ntfy notifications disabled")
	} else {
		p.OK("NTFY_TOPIC=%s", cfg.NtfyTopic)
	}
	if cfg.NtfyServer != "" && !config.IsHTTPURL(cfg.NtfyServer) {
		fail("NTFY_SERVER %q is not an http(s) URL", cfg.NtfyServer)
	}

	if n := len(multierr.Errors(failures)); n > 0 {
		return fmt.Errorf("preflight failed with %d problem(s)", n)
	}
	p.OK("preflight passed")
	return nil
}
