package models

import (
	"time"
)

// CardSnapshotEntry is one card available in a series' pack at the time of
// the last successful poll. The table holds exactly the most recent snapshot
// per series: it is fully replaced (delete then insert) every cycle, never
// patched. Written only by the reconciliation engine.
type CardSnapshotEntry struct {
	ID                  uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID            string     `json:"series_id" gorm:"index:idx_snapshot_series_card;not null"`
	CardID              string     `json:"card_id" gorm:"index:idx_snapshot_series_card;not null"`
	Tier                string     `json:"tier"`
	PlayerName          string     `json:"player_name"`
	Overall             *float64   `json:"overall"`
	InsertName          string     `json:"insert_name"`
	SetNumber           string     `json:"set_number"`
	SetName             string     `json:"set_name"`
	ParallelName        string     `json:"parallel_name"`
	ParallelNumber      string     `json:"parallel_number"`
	ParallelTotal       string     `json:"parallel_total"`
	FrontImageURL       string     `json:"front_image_url"`
	BackImageURL        string     `json:"back_image_url"`
	GradingCompany      string     `json:"grading_company"`
	EstimatedValueCents *int64     `json:"estimated_value_cents"`
	SnapshotTime        time.Time  `json:"snapshot_time"`
}

// PackTotalValueSnapshot records the summed estimated value of all cards
// available in a pack, once per poll cycle. Append-only.
type PackTotalValueSnapshot struct {
	ID                       uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID                 string    `json:"series_id" gorm:"index;not null"`
	TotalEstimatedValueCents int64     `json:"total_estimated_value_cents"`
	SnapshotTime             time.Time `json:"snapshot_time"`
}
