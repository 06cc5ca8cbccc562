package service

import (
	"fmt"
	"os"
	"path/filepath"

	"stock-dynamic/config"
)

func PrepareOutputDirs(cfg config.Output) error {
	for _, dir := range []string{cfg.ReportDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

type CleanResult struct {
	ReportsRemoved int
	DataRemoved    int
}

// CleanOutputs removes *.txt from the report dir and *.csv from the data dir.
// A file that cannot be removed is reported and skipped.
func CleanOutputs(cfg config.Output) (CleanResult, []error) {
	var (
		result CleanResult
		errs   []error
	)
	remove := func(pattern string) int {
		files, err := filepath.Glob(pattern)
		if err != nil {
			errs = append(errs, err)
			return 0
		}
		removed := 0
		for _, f := range files {
			if err := os.Remove(f); err != nil {
				errs = append(errs, fmt.Errorf("error removing file %s: %w", f, err))
				continue
			}
			removed++
		}
		return removed
	}
	result.ReportsRemoved = remove(filepath.Join(cfg.ReportDir, "*.txt"))
	result.DataRemoved = remove(filepath.Join(cfg.DataDir, "*.csv"))
	return result, errs
}
