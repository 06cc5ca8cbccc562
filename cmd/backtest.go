package cmd

import (
	"os"

	"stock-dynamic/internal/service"

	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the trailing-stop strategy on every configured ticker",
	RunE:  runBacktest,
}

func init() {
	fs := backtestCmd.Flags()
	addWindowFlags(fs)
	fs.Float64("entry-trail-pct", 0, "buy when price rises this percent above the lowest low")
	fs.Float64("exit-trail-pct", 0, "sell when price falls this percent below the highest high since the buy")
	fs.Int("shares", 0, "fixed number of shares per trade")
	fs.Float64("budget", 0, "size each trade as floor(budget / buy price) instead of --shares")
	fs.Bool("daily-trades", false, "reset the lowest low at the start of every trading day")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	app, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = app.Services(os.Stdout).BacktestService.Run(ctx, service.BacktestRun{
		Request:  service.BacktestRequestFromConfig(app.cfg),
		Lookback: service.MaxLookback(app.cfg.Analysis),
		Trigger:  "cli",
	})
	return err
}
