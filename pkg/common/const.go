package common

// ticker, interval, start unix, end unix, prepost
const (
	KEY_BAR_SERIES = "bars:%s:%s:%d:%d:%t"
)

const (
	RAW_CSV_SUFFIX      = "_raw.csv"
	ANALYSIS_CSV_SUFFIX = "hr_analysis.csv"
	SUMMARY_PREFIX      = "summary_"
)

const (
	HEADER_USER_AGENT = "Mozilla/5.0 (compatible; stock-dynamic/1.0)"
)
