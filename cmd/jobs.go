package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/app"
	"github.com/ackwest/seoengine/internal/config"
)

// newJobsCmd creates the 'jobs' subcommand for listing and running
// the background jobs outside their cron cadence.
func newJobsCmd(cfg *config.Config, log **zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run scheduled jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered jobs and their schedules",
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := buildApp(c, cfg, *log)
			if err != nil {
				return err
			}
			defer a.Close(c.Context())

			for _, job := range a.Scheduler.Jobs() {
				fmt.Printf("%-20s %s\n", job.Name, job.Schedule)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := buildApp(c, cfg, *log)
			if err != nil {
				return err
			}
			defer a.Close(c.Context())

			run, err := a.Scheduler.RunOnce(c.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run job %s: %w", args[0], err)
			}
			if run.Error != "" {
				return fmt.Errorf("job %s failed: %s", run.Name, run.Error)
			}
			fmt.Printf("%s completed in %s\n", run.Name, run.Duration)
			return nil
		},
	})

	return cmd
}

func buildApp(c *cobra.Command, cfg *config.Config, log *zap.Logger) (*app.App, error) {
	// Job commands need the scheduler regardless of the serve-time
	// setting.
	runCfg := *cfg
	runCfg.Scheduler.Enabled = true

	a, err := app.New(c.Context(), runCfg, log)
	if err != nil {
		return nil, fmt.Errorf("init application: %w", err)
	}
	return a, nil
}
