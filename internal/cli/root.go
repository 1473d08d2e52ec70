package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sixfb/deploycheck/internal/config"
	"github.com/sixfb/deploycheck/internal/logging"
	"github.com/sixfb/deploycheck/internal/notify"
)

// Version is set at build time via -ldflags "-X github.com/sixfb/deploycheck/internal/cli.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "deploycheck",
	Short: "Deployment and CORS verification for the 6FB platform",
	Long: `deploycheck watches a frontend deploy until the new build serves its
marker text and probes the backend's CORS configuration the way a
browser would, so a broken deploy is caught before users hit it.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for rotating JSON logs (default LOG_DIR or ./logs)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.Flags().BoolP("version", "v", false, "Print version and exit")
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("deploycheck version %s\n", Version)
			return
		}
		cmd.Help()
	}
}

// newLogger builds the shared rotating-file logger for one command run.
func newLogger(cmd *cobra.Command, cfg config.Config) (*zap.Logger, error) {
	dir := cfg.LogDir
	if v, _ := cmd.Flags().GetString("log-dir"); v != "" {
		dir = v
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.NewLogger(dir, verbose)
}

// signalContext is cancelled on SIGINT or SIGTERM so long-running commands
// stop between attempts instead of dying mid-request.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// notifiers assembles the channels the environment configures. Empty config
// yields an empty Multi, whose Send is a no-op.
func notifiers(cfg config.Config) notify.Multi {
	var m notify.Multi
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		m = append(m, s)
	}
	if n := notify.NewNtfy(cfg.NtfyServer, cfg.NtfyTopic, cfg.NtfyToken); n != nil {
		m = append(m, n)
	}
	return m
}
