package cmd

import (
	"context"
	"os"

	"stock-dynamic/internal/service"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the analysis and backtest on the configured cron specs",
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	app, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.cfg
	services := app.Services(os.Stdout)

	analysisJob := func(ctx context.Context) error {
		_, err := services.AnalysisService.Run(ctx, service.AnalysisRun{Config: cfg.Analysis, Trigger: "scheduler"})
		return err
	}
	backtestJob := func(ctx context.Context) error {
		_, err := services.BacktestService.Run(ctx, service.BacktestRun{
			Request:  service.BacktestRequestFromConfig(cfg),
			Lookback: service.MaxLookback(cfg.Analysis),
			Trigger:  "scheduler",
		})
		return err
	}

	return service.NewSchedulerService(cfg.Scheduler, app.log, analysisJob, backtestJob).Start(ctx)
}
