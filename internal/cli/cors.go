package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sixfb/deploycheck/internal/config"
	"github.com/sixfb/deploycheck/internal/corscheck"
	"github.com/sixfb/deploycheck/internal/report"
)

var corsCmd = &cobra.Command{
	Use:   "cors",
	Short: "Probe the backend's CORS configuration from the frontend's point of view",
	Long: `cors runs the checks a browser performs implicitly: is the backend up,
does it answer the frontend origin with an Access-Control-Allow-Origin
header, does it approve the login preflight, and does a cross-origin
login request reach the handler. The verdict has three tiers; only an
unreachable backend is a hard error.`,
	RunE: runCORS,
}

func init() {
	rootCmd.AddCommand(corsCmd)

	corsCmd.Flags().String("backend", "", "Backend base URL (default BACKEND_URL)")
	corsCmd.Flags().String("frontend", "", "Frontend URL whose origin must be allowed (default FRONTEND_URL)")
	corsCmd.Flags().String("auth-path", "", "Authentication endpoint path (default AUTH_PATH)")
	corsCmd.Flags().Duration("timeout", 0, "Per-request timeout (default HTTP_TIMEOUT_MS or 10s)")
	corsCmd.Flags().Bool("json", false, "Emit the report as JSON instead of text")
	corsCmd.Flags().Bool("strict", false, "Exit non-zero unless the verdict is fully_working")
	corsCmd.Flags().Bool("notify", false, "Send the verdict to the configured notification channels")
}

func runCORS(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.BackendURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetString("frontend"); v != "" {
		cfg.FrontendURL = v
	}
	if v, _ := cmd.Flags().GetString("auth-path"); v != "" {
		cfg.AuthPath = v
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

	suite := corscheck.New(corscheck.Config{
		BackendURL: cfg.BackendURL,
		Origin:     config.Origin(cfg.FrontendURL),
		AuthPath:   cfg.AuthPath,
		Timeout:    cfg.HTTPTimeout,
	}, log)

	r, runErr := suite.Run(ctx)

	if asJSON {
		if err := report.JSON(os.Stdout, r); err != nil {
			return err
		}
	} else {
		report.New(os.Stdout).CORS(r)
	}
	if errs := r.Errs(); errs != nil {
		log.Warn("cors_request_errors", zap.Error(errs))
	}

	if wantNotify {
		title, text := corsNotification(cfg, r, runErr)
		nctx, ncancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer ncancel()
		if err := notifiers(cfg).Send(nctx, title, text); err != nil {
			log.Warn("notify_failed", zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	if strict && r.Verdict != corscheck.FullyWorking {
		return fmt.Errorf("CORS verdict is %s", r.Verdict)
	}
	return nil
}

func corsNotification(cfg config.Config, r *corscheck.Report, runErr error) (string, string) {
	if runErr != nil {
		return "Backend unreachable", fmt.Sprintf("%s gave no HTTP response: %v", cfg.BackendURL, runErr)
	}
	return "CORS verdict: " + string(r.Verdict),
		fmt.Sprintf("%s for origin %s (header=%v preflight=%v functional=%v)",
			cfg.BackendURL, r.Origin, r.HeaderPresent, r.PreflightOK, r.FunctionalOK)
}
