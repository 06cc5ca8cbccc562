package dto

type TimeAnchor string

const (
	// TimeAnchorStart keys lag-return records by the buy bar.
	TimeAnchorStart TimeAnchor = "start"
	// TimeAnchorEnd keys lag-return records by the sell bar.
	TimeAnchorEnd TimeAnchor = "end"
)

func ParseTimeAnchor(s string) TimeAnchor {
	if TimeAnchor(s) == TimeAnchorEnd {
		return TimeAnchorEnd
	}
	return TimeAnchorStart
}

const (
	SourceYahoo = "yahoo"
	SourceCSV   = "csv"
)

type RunKind string

const (
	RunKindAnalysis RunKind = "analysis"
	RunKindBacktest RunKind = "backtest"
)
