package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the short and long interval bars without analysing them",
	RunE:  runDownload,
}

func init() {
	fs := downloadCmd.Flags()
	addWindowFlags(fs)
	fs.String("interval-long", "", "second bar interval to download, e.g. 60m")
	fs.Bool("prepost-long", false, "include pre/post market bars for the long interval")
	fs.Bool("save-data", false, "save the downloaded bars as CSVs to output.data_dir")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	app, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = app.Services(os.Stdout).DownloadService.Download(ctx, app.cfg.Analysis)
	return err
}
