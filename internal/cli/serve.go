package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sixfb/deploycheck/internal/config"
	"github.com/sixfb/deploycheck/internal/sim"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local backend simulator with selectable CORS behavior",
	Long: `serve starts a stand-in for the production backend on a local port.
Point the cors subcommand at it to reproduce any verdict tier:
allowlist behaves like a correctly configured backend, open answers
every origin with *, off strips CORS handling entirely.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Bind address (default SIM_ADDR or 127.0.0.1:8082)")
	serveCmd.Flags().String("mode", sim.ModeAllowlist, "CORS mode: allowlist, open or off")
	serveCmd.Flags().StringSlice("origin", nil, "Allowed origin for allowlist mode (default the frontend origin, repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.SimAddr = v
	}
	mode, _ := cmd.Flags().GetString("mode")
	switch mode {
	case sim.ModeAllowlist, sim.ModeOpen, sim.ModeOff:
	default:
		return fmt.Errorf("unknown mode %q (want allowlist, open or off)", mode)
	}
	origins, _ := cmd.Flags().GetStringSlice("origin")
	if len(origins) == 0 {
		origins = []string{config.Origin(cfg.FrontendURL)}
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("simulator on http://%s (mode %s)\n", cfg.SimAddr, mode)
	return sim.Serve(ctx, cfg.SimAddr, sim.Options{
		Mode:           mode,
		AllowedOrigins: origins,
		AuthPath:       cfg.AuthPath,
		Logger:         log,
	})
}
