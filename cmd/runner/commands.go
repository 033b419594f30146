package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/app"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/usecase"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// Command builds the root CLI command.
func Command() *cobra.Command {
	var configPath string
	c := &cobra.Command{
		SilenceUsage: true,
		Use:          "wa-automations-runner",
		Long:         "Runs one automation pass and prints its summary as JSON. Exits non-zero when the run fails.",
	}
	c.PersistentFlags().StringVar(&configPath, "config", "", "directory holding default.yaml")
	c.AddCommand(
		jobCommand("reminders", "Send reminders for appointments entering the reminder window.", &configPath,
			func(a *app.App) usecase.Job { return a.Reminders }),
		jobCommand("marketing", "Send birthday and rescue messages for tenants at their send time.", &configPath,
			func(a *app.App) usecase.Job { return a.Marketing }),
	)
	return c
}

func jobCommand(use, short string, configPath *string, pick func(*app.App) usecase.Job) *cobra.Command {
	return &cobra.Command{
		SilenceUsage: true,
		Use:          use,
		Short:        short,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			time.Local = time.UTC

			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.InitializeWithFile(cfg.LogLevel, cfg.Log.File); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger.Log)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(context.Background()); err != nil {
					logger.Log.Warn("Failed to release resources", zap.Error(err))
				}
			}()

			return runJob(ctx, cmd.OutOrStdout(), pick(application))
		},
	}
}

// runJob runs job once and writes its summary to out
func runJob(ctx context.Context, out io.Writer, job usecase.Job) error {
	summary, err := job.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s run failed: %w", job.Name(), err)
	}
	return writeSummary(out, summary)
}

func writeSummary(out io.Writer, summary *model.RunSummary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
