package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sixfb/deploycheck/internal/config"
	"github.com/sixfb/deploycheck/internal/probe"
	"github.com/sixfb/deploycheck/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the frontend until the new build serves the deploy marker",
	Long: `watch requests the frontend page on a fixed interval and looks for the
deploy marker substring in the body. It stops as soon as the marker
appears; running out of attempts is a normal outcome, not an error,
unless --strict is set.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("url", "", "Frontend URL to poll (default FRONTEND_URL)")
	watchCmd.Flags().String("marker", "", "Substring that identifies the new build (default DEPLOY_MARKER)")
	watchCmd.Flags().Int("attempts", 0, "Polling attempts before giving up (default MAX_ATTEMPTS or 20)")
	watchCmd.Flags().Duration("interval", 0, "Pause between attempts (default POLL_INTERVAL_S or 15s)")
	watchCmd.Flags().Duration("timeout", 0, "Per-request timeout (default HTTP_TIMEOUT_MS or 10s)")
	watchCmd.Flags().Bool("json", false, "Emit the outcome as JSON instead of text")
	watchCmd.Flags().Bool("strict", false, "Exit non-zero when the marker never appears")
	watchCmd.Flags().Bool("notify", false, "Send the outcome to the configured notification channels")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		cfg.FrontendURL = v
	}
	if v, _ := cmd.Flags().GetString("marker"); v != "" {
		cfg.Marker = v
	}
	if n, _ := cmd.Flags().GetInt("attempts"); n > 0 {
		cfg.MaxAttempts = n
	}
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		cfg.Interval = d
	}
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		cfg.HTTPTimeout = d
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	asJSON, _ := cmd.Flags().GetBool("json")
	strict, _ := cmd.Flags().GetBool("strict")
	wantNotify, _ := cmd.Flags().GetBool("notify")

	ctx, cancel := signalContext()
	defer cancel()

	p := probe.Poller{
		Checker:  probe.NewPageChecker(cfg.HTTPTimeout, cfg.Marker),
		Attempts: cfg.MaxAttempts,
		Interval: cfg.Interval,
		Logger:   log,
	}
	if !asJSON {
		p.Progress = os.Stdout
	}

	out := p.Run(ctx, cfg.FrontendURL)

	if asJSON {
		if err := report.JSON(os.Stdout, out); err != nil {
			return err
		}
	} else {
		report.New(os.Stdout).Poll(cfg.FrontendURL, cfg.Marker, out)
	}

	if wantNotify {
		title, text := pollNotification(cfg, out)
		nctx, ncancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer ncancel()
		if err := notifiers(cfg).Send(nctx, title, text); err != nil {
			log.Warn("notify_failed", zap.Error(err))
		}
	}

	if strict && !out.Found {
		return fmt.Errorf("marker %q not served after %d attempt(s)", cfg.Marker, out.Attempts)
	}
	return nil
}

func pollNotification(cfg config.Config, out probe.Outcome) (string, string) {
	if out.Found {
		return "Deploy live",
			fmt.Sprintf("%s serves %q after %d attempt(s)", cfg.FrontendURL, cfg.Marker, out.Attempts)
	}
	return "Deploy not confirmed",
		fmt.Sprintf("%s did not serve %q after %d attempt(s)", cfg.FrontendURL, cfg.Marker, out.Attempts)
}
