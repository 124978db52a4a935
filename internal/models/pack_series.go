package models

import (
	"time"
)

// PackSeries holds the latest known metadata for a tracked pack series.
// Keyed by the authoritative series id from the detail endpoint (the
// discovery-time id can drift). Rows are upserted every poll and never
// deleted.
type PackSeries struct {
	SeriesID  string    `json:"series_id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Tier      string    `json:"tier"` // category label, e.g. "Diamond"
	CostCents int64     `json:"cost_cents"`
	Status    string    `json:"status"` // "active" or "inactive"
	LastSeen  time.Time `json:"last_seen"`
}

// SeriesProcessingState carries the per-series watermark: the sweep start
// time of the last cycle whose disappearances were fully processed. Used as
// the exclusive lower bound for hit-feed verification in the next cycle.
type SeriesProcessingState struct {
	SeriesID                     string     `json:"series_id" gorm:"primaryKey"`
	LastSnapshotCardsProcessedAt *time.Time `json:"last_snapshot_cards_processed_at"`
}

// PackMaxSold is a monotonic ratchet over the upstream-reported sold count.
type PackMaxSold struct {
	SeriesID    string    `json:"series_id" gorm:"primaryKey"`
	MaxSold     int       `json:"max_sold"`
	LastUpdated time.Time `json:"last_updated"`
}

// PackSalesTracker accumulates confirmed sales across all cycles.
type PackSalesTracker struct {
	SeriesID    string    `json:"series_id" gorm:"primaryKey"`
	TotalSold   int       `json:"total_sold"`
	LastChecked time.Time `json:"last_checked"`
}

// PackCountersSnapshot records the upstream pack-level sold/total counters
// once per poll cycle. Append-only.
type PackCountersSnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID     string    `json:"series_id" gorm:"index;not null"`
	PacksSold    int       `json:"packs_sold"`
	PacksTotal   int       `json:"packs_total"`
	SnapshotTime time.Time `json:"snapshot_time"`
}
