package model

import (
	"database/sql"
	"time"
)

// AnalysisSummary is one ticker/holding-period row. Means that are undefined
// (NaN) are stored as NULL.
type AnalysisSummary struct {
	ID              uint    `gorm:"primaryKey"`
	RunID           uint    `gorm:"not null;index"`
	Ticker          string  `gorm:"type:varchar(20);not null"`
	Interval        string  `gorm:"type:varchar(10);not null"`
	HoldingHours    float64 `gorm:"not null"`
	Iteration       int     `gorm:"not null"`
	LagPeriods      int     `gorm:"not null"`
	TotalTrades     int     `gorm:"not null"`
	LossProbability float64 `gorm:"not null"`
	WinRate         float64 `gorm:"not null"`
	AvgPriceDiff    sql.NullFloat64
	AvgGainDiff     sql.NullFloat64
	AvgLossDiff     sql.NullFloat64
	ExpectedReturn  sql.NullFloat64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (AnalysisSummary) TableName() string {
	return "analysis_summaries"
}
