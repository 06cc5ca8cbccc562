package cmd

import (
	"fmt"
	"os"

	"stock-dynamic/internal/service"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the lag-return analysis over every ticker group",
	RunE:  runAnalyze,
}

func init() {
	fs := analyzeCmd.Flags()
	addWindowFlags(fs)
	fs.String("time-anchor", "", "key exported records by buy (start) or sell (end) time")
	fs.Bool("only-profitable", false, "only echo results with a positive expected return")
	fs.Bool("save-data", false, "save raw and per-holding-period CSVs to output.data_dir")
	fs.Bool("clean", false, "delete old reports and CSVs before the run")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	app, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Services(os.Stdout).AnalysisService.Run(ctx, service.AnalysisRun{
		Config:  app.cfg.Analysis,
		Trigger: "cli",
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nSummary saved to %s\n", report.SummaryFile)
	return nil
}
