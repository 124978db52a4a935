package models

import (
	"time"
)

// PackEvRoiSnapshot stores one EV/ROI computation per poll cycle per series.
// ROI is nil when the static pack cost is unknown (unknown is not free) and
// +Inf when the cost is zero. Append-only.
type PackEvRoiSnapshot struct {
	ID                        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID                  string    `json:"series_id" gorm:"index;not null"`
	ExpectedValueCents        int64     `json:"expected_value_cents"`
	StaticPackCostCents       *int64    `json:"static_pack_cost_cents"`
	ROI                       *float64  `json:"roi"`
	NumPremiumCardsPerPack    int       `json:"num_premium_cards_per_pack"`
	NumNonPremiumCardsPerPack int       `json:"num_non_premium_cards_per_pack"`
	ExpectedValueBBCents      *int64    `json:"expected_value_bb_cents"`
	PackCostBBCents           *int64    `json:"pack_cost_bb_cents"`
	ROIBB                     *float64  `json:"roi_bb"`
	SnapshotTime              time.Time `json:"snapshot_time"`
}

// PackTierEvContributionSnapshot stores one tier's contribution to a
// PackEvRoiSnapshot, for the per-tier breakdown chart. Append-only.
type PackTierEvContributionSnapshot struct {
	ID                    uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesID              string    `json:"series_id" gorm:"index;not null"`
	EvRoiSnapshotID       uint      `json:"ev_roi_snapshot_id" gorm:"index;not null"`
	TierAPIID             string    `json:"tier_api_id"`
	TierName              string    `json:"tier_name"`
	IsPremium             bool      `json:"is_premium"`
	HitRate               float64   `json:"hit_rate"`
	NumCardsInTier        int       `json:"num_cards_in_tier"`
	AvgValueInTierCents   int64     `json:"avg_value_in_tier_cents"`
	TierContributionCents int64     `json:"tier_contribution_cents"`
	SnapshotTime          time.Time `json:"snapshot_time"`
}
