package model

import (
	"database/sql"
	"time"
)

type BacktestTrade struct {
	ID            uint      `gorm:"primaryKey"`
	RunID         uint      `gorm:"not null;index"`
	Ticker        string    `gorm:"type:varchar(20);not null"`
	BuyPrice      float64   `gorm:"not null"`
	BuyTime       time.Time `gorm:"not null"`
	SellPrice     float64   `gorm:"not null"`
	SellTime      time.Time `gorm:"not null"`
	Shares        int       `gorm:"not null"`
	ProfitAndLoss float64   `gorm:"not null"`
	ProfitPct     float64   `gorm:"not null"`
	EntryTrailPct float64   `gorm:"not null"`
	ExitTrailPct  float64   `gorm:"not null"`
	Budget        sql.NullFloat64
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (BacktestTrade) TableName() string {
	return "backtest_trades"
}
