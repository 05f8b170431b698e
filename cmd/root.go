// Package cmd defines the CLI commands for the seoengine executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command. Config and the
// logger are loaded in PersistentPreRunE so every subcommand gets them.
func newRootCmd() *cobra.Command {
	var (
		cfg config.Config
		log *zap.Logger
	)

	cmd := &cobra.Command{
		Use:   "seoengine",
		Short: "Multi-tenant SEO and marketing automation platform.",
		Long: `seoengine runs the content, ranking, review, and lead pipeline for
local-business clients: it drafts SEO content, publishes to WordPress
and social platforms, tracks keyword positions, watches competitor
sites, and captures website leads.`,

		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; real deployments set the environment.
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(log)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment only)")

	cmd.AddCommand(newServeCmd(&cfg, &log))
	cmd.AddCommand(newJobsCmd(&cfg, &log))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
