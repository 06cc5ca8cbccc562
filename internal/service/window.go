package service

import (
	"errors"
	"fmt"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/common"
	"stock-dynamic/pkg/utils"
)

var ErrInvalidWindow = errors.New("invalid data window")

// Window is the download range of one run. Label is what the run reports and
// names files after: "period-P" or "START_to_END".
type Window struct {
	Start    time.Time
	End      time.Time
	Absolute bool
	Label    string
}

// ResolveWindow extends the requested range backwards by lookback so the
// longest holding period still has forward bars. Absolute dates win over the
// relative period when both dates are given.
func ResolveWindow(now time.Time, w dto.DataWindow, lookback time.Duration) (Window, error) {
	if w.StartDate != "" && w.EndDate != "" {
		start, err := utils.ParseDate(w.StartDate)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidWindow, w.StartDate, err)
		}
		end, err := utils.ParseDate(w.EndDate)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end date %q: %v", ErrInvalidWindow, w.EndDate, err)
		}
		if !end.After(start) {
			return Window{}, fmt.Errorf("%w: end date %s must be after start date %s", ErrInvalidWindow, w.EndDate, w.StartDate)
		}
		return Window{
			Start:    start.Add(-lookback),
			End:      end,
			Absolute: true,
			Label:    fmt.Sprintf("%s_to_%s", w.StartDate, w.EndDate),
		}, nil
	}

	period, err := utils.ParsePeriod(w.Period)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	return Window{
		Start: now.Add(-(lookback + period)),
		End:   now,
		Label: "period-" + w.Period,
	}, nil
}

// MaxLookback is the longest holding period of a run: base_hours * iterations.
func MaxLookback(cfg config.Analysis) time.Duration {
	return utils.HoursDuration(cfg.BaseHours * float64(cfg.Iterations))
}

func AnalysisDataWindow(cfg config.Analysis, prePost bool) dto.DataWindow {
	return dto.DataWindow{
		Period:    cfg.Period,
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		PrePost:   prePost,
	}
}

// FilenameSuffix is "_{interval}_anchor-{anchor}_{window label}".
func FilenameSuffix(cfg config.Analysis, w Window) string {
	return fmt.Sprintf("_%s_anchor-%s_%s", cfg.IntervalShort, cfg.TimeAnchor, w.Label)
}

func SummaryFileName(cfg config.Analysis, w Window) string {
	return fmt.Sprintf("%sbase-%s_iter-%d%s.txt", common.SUMMARY_PREFIX, utils.FormatHours(cfg.BaseHours), cfg.Iterations, FilenameSuffix(cfg, w))
}
