package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-dynamic/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "stock-dynamic",
	Short:         "Intraday lag-return analysis and trailing-stop backtests",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"period":          "analysis.period",
	"start-date":      "analysis.start_date",
	"end-date":        "analysis.end_date",
	"base-hours":      "analysis.base_hours",
	"iterations":      "analysis.iterations",
	"interval-short":  "analysis.interval_short",
	"interval-long":   "analysis.interval_long",
	"time-anchor":     "analysis.time_anchor",
	"only-profitable": "analysis.only_profitable",
	"prepost-short":   "analysis.prepost_short",
	"prepost-long":    "analysis.prepost_long",
	"save-data":       "analysis.save_data",
	"clean":           "analysis.clean",
	"entry-trail-pct": "backtest.entry_trail_pct",
	"exit-trail-pct":  "backtest.exit_trail_pct",
	"shares":          "backtest.shares",
	"budget":          "backtest.budget",
	"daily-trades":    "backtest.daily_trades",
	"source":          "data.source",
	"csv-dir":         "data.csv_dir",
	"port":            "api.port",
	"log-level":       "logger.level",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(migrateCmd)
}

// addWindowFlags registers the flags that select tickers and the data window.
func addWindowFlags(fs *pflag.FlagSet) {
	fs.StringSlice("tickers", nil, "tickers to process as a single group, overrides analysis.ticker_groups")
	fs.String("period", "", "relative download period, e.g. 5d, 1w, 1mo")
	fs.String("start-date", "", "absolute window start (YYYY-MM-DD), requires --end-date")
	fs.String("end-date", "", "absolute window end (YYYY-MM-DD), requires --start-date")
	fs.String("interval-short", "", "bar interval for analysis and backtest, e.g. 5m")
	fs.Bool("prepost-short", false, "include pre/post market bars for the short interval")
	fs.String("source", "", "bar source: yahoo or csv")
	fs.String("csv-dir", "", "directory holding {ticker}_{interval}_raw.csv files for --source csv")
	fs.Float64("base-hours", 0, "holding period of the first iteration, in hours")
	fs.Int("iterations", 0, "number of holding periods: base-hours * 1..iterations")
}

// bindFlags only binds flags set on the command line so unset flags never
// shadow file, env or default values.
func bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed || err != nil {
			return
		}
		err = viper.BindPFlag(key, f)
	})
	return err
}

// loadConfig reads the configuration with the command's flags applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := bindFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("tickers"); f != nil && f.Changed {
		tickers, err := cmd.Flags().GetStringSlice("tickers")
		if err != nil {
			return nil, err
		}
		cfg.Analysis.TickerGroups = [][]string{tickers}
	}
	return cfg, nil
}

func requireTickers(cfg *config.Config) error {
	if len(cfg.Analysis.AllTickers()) == 0 {
		return fmt.Errorf("no tickers configured: set analysis.ticker_groups or --tickers")
	}
	return nil
}

// setup loads the configuration and builds the shared dependencies of a run
// command. The caller owns the returned dependency and must Close it.
func setup(cmd *cobra.Command, needTickers bool) (*AppDependency, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if needTickers {
		if err := requireTickers(cfg); err != nil {
			return nil, err
		}
	}
	return NewAppDependency(cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
