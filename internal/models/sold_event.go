package models

import (
	"time"
)

// HitFeedMatch is the domain-level view of a hit-feed item that corroborated
// a sale. It stays a separate value on the confirmed sale until the store
// flattens it into hit_feed_* columns; engine code never touches the
// null-heavy dual-prefix row directly.
type HitFeedMatch struct {
	EventID        string
	CardID         string
	PlayerName     string
	Overall        *float64
	SetName        string
	SetNumber      string
	ParallelName   string
	ParallelNumber string
	ParallelTotal  string
	FrontImageURL  string
	BackImageURL   string
	GradingCompany string
	SeriesName     string
	CategoryName   string
	CreatedAt      time.Time
}

// SoldCardEvent is the persisted, denormalized record of a confirmed sale:
// the card's last-known snapshot attributes plus, when hit-feed verified, a
// copy of the matching feed item. Append-only and immutable once written.
// The unique index on HitFeedEventID makes verified inserts idempotent
// (NULLs do not collide, so unverified events are unaffected).
type SoldCardEvent struct {
	ID                          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID                    string     `json:"series_id" gorm:"index;not null"`
	CardID                      string     `json:"card_id" gorm:"index;not null"`
	SnapshotTier                string     `json:"snapshot_tier"`
	SnapshotPlayerName          string     `json:"snapshot_player_name"`
	SnapshotSetName             string     `json:"snapshot_set_name"`
	SnapshotInsertName          string     `json:"snapshot_insert_name"`
	SnapshotGradingCompany      string     `json:"snapshot_grading_company"`
	SnapshotOverall             *float64   `json:"snapshot_overall"`
	SnapshotEstimatedValueCents *int64     `json:"snapshot_estimated_value_cents"`
	HitFeedEventID              *string    `json:"hit_feed_event_id" gorm:"uniqueIndex"`
	HitFeedPlayerName           *string    `json:"hit_feed_player_name"`
	HitFeedSetName              *string    `json:"hit_feed_set_name"`
	HitFeedSetNumber            *string    `json:"hit_feed_set_number"`
	HitFeedParallelName         *string    `json:"hit_feed_parallel_name"`
	HitFeedParallelNumber       *string    `json:"hit_feed_parallel_number"`
	HitFeedParallelTotal        *string    `json:"hit_feed_parallel_total"`
	HitFeedFrontImageURL        *string    `json:"hit_feed_front_image_url"`
	HitFeedBackImageURL         *string    `json:"hit_feed_back_image_url"`
	HitFeedGradingCompany       *string    `json:"hit_feed_grading_company"`
	HitFeedOverall              *float64   `json:"hit_feed_overall"`
	HitFeedSeriesName           *string    `json:"hit_feed_series_name"`
	HitFeedCategoryName         *string    `json:"hit_feed_category_name"`
	SoldAt                      time.Time  `json:"sold_at"`
	IsHitFeedVerified           bool       `json:"is_hit_feed_verified"`
	CreatedAt                   time.Time  `json:"created_at"`
}

// SuspectedSwap logs a disappearance from a verification-required tier that
// the hit feed did not corroborate within the cycle. Append-only; never
// promoted to a SoldCardEvent automatically.
type SuspectedSwap struct {
	ID                          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID                    string    `json:"series_id" gorm:"index;not null"`
	CardID                      string    `json:"card_id" gorm:"not null"`
	SnapshotTier                string    `json:"snapshot_tier"`
	SnapshotPlayerName          string    `json:"snapshot_player_name"`
	SnapshotEstimatedValueCents *int64    `json:"snapshot_estimated_value_cents"`
	DisappearedAt               time.Time `json:"disappeared_at"`
}
