package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// AnalysisRun is one CLI, API or scheduled invocation. Params holds the
// request as submitted.
type AnalysisRun struct {
	ID           uint           `gorm:"primaryKey"`
	Kind         string         `gorm:"type:varchar(20);not null"`
	Trigger      string         `gorm:"type:varchar(20);not null"`
	Params       datatypes.JSON `gorm:"type:jsonb;not null"`
	Status       RunStatus      `gorm:"type:varchar(20);not null"`
	StartedAt    time.Time      `gorm:"not null"`
	FinishedAt   sql.NullTime
	ErrorMessage sql.NullString `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`

	Summaries []AnalysisSummary `gorm:"foreignKey:RunID"`
	Trades    []BacktestTrade   `gorm:"foreignKey:RunID"`
}

func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

type GetAnalysisRunParam struct {
	Kind  *string
	Limit *int
}
