// Package store is the persistence layer for the pack tracker. Every write
// path is scoped to a single series; cross-series isolation comes from the
// engine processing series one at a time and from each series' rows being
// disjoint by series_id.
package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flipforce/pack-tracker/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ConfirmedSale is the domain view of a confirmed disappearance: the card's
// last-known snapshot plus the optional corroborating hit-feed match. It is
// flattened into the denormalized SoldCardEvent row only here, at the
// persistence boundary.
type ConfirmedSale struct {
	Card   models.CardSnapshotEntry
	Hit    *models.HitFeedMatch
	SoldAt time.Time
}

// UpsertSeries updates the series metadata row and appends a pack-level
// counters snapshot, in one transaction.
func (s *Store) UpsertSeries(meta models.PackSeries, packsSold, packsTotal int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "series_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "tier", "cost_cents", "status", "last_seen",
			}),
		}).Create(&meta).Error; err != nil {
			return err
		}
		counters := models.PackCountersSnapshot{
			SeriesID:     meta.SeriesID,
			PacksSold:    packsSold,
			PacksTotal:   packsTotal,
			SnapshotTime: meta.LastSeen,
		}
		return tx.Create(&counters).Error
	})
}

// RaiseMaxSold advances the monotonic sold-count ratchet. The row is locked
// pessimistically so concurrent writers cannot lose an update; this is the
// explicit per-series critical section a multi-instance deployment needs.
func (s *Store) RaiseMaxSold(seriesID string, sold int, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.PackMaxSold
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("series_id = ?", seriesID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.PackMaxSold{
				SeriesID:    seriesID,
				MaxSold:     sold,
				LastUpdated: now,
			}).Error
		}
		if err != nil {
			return err
		}
		if sold <= row.MaxSold {
			return nil
		}
		return tx.Model(&models.PackMaxSold{}).
			Where("series_id = ?", seriesID).
			Updates(map[string]interface{}{"max_sold": sold, "last_updated": now}).Error
	})
}

// Watermark returns the series' verification lower bound, or nil when the
// series has never completed a cycle.
func (s *Store) Watermark(seriesID string) (*time.Time, error) {
	var state models.SeriesProcessingState
	err := s.db.Where("series_id = ?", seriesID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state.LastSnapshotCardsProcessedAt, nil
}

// AdvanceWatermark sets the series watermark to the sweep's start time.
func (s *Store) AdvanceWatermark(seriesID string, t time.Time) error {
	state := models.SeriesProcessingState{
		SeriesID:                     seriesID,
		LastSnapshotCardsProcessedAt: &t,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "series_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_snapshot_cards_processed_at"}),
	}).Create(&state).Error
}

// CurrentSnapshot returns the card set recorded by the last successful
// cycle for a series.
func (s *Store) CurrentSnapshot(seriesID string) ([]models.CardSnapshotEntry, error) {
	var entries []models.CardSnapshotEntry
	err := s.db.Where("series_id = ?", seriesID).Find(&entries).Error
	return entries, err
}

// CommitCycle persists the outcome of one series' diff atomically: sold
// events, suspected swaps, the total-sold increment, and the full snapshot
// replacement commit or roll back together. Readers never observe a
// partially replaced snapshot, and a crash can never leave events written
// without the snapshot advanced.
//
// Verified events are deduplicated by the hit_feed_event_id unique index;
// the tracker increment uses the count actually inserted, so replaying a
// diff against a stale snapshot cannot double-count verified sales.
func (s *Store) CommitCycle(seriesID string, sales []ConfirmedSale, swaps []models.SuspectedSwap, next []models.CardSnapshotEntry, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		inserted := 0
		for i := range sales {
			event := flattenSale(seriesID, sales[i])
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
			if res.Error != nil {
				return res.Error
			}
			inserted += int(res.RowsAffected)
		}

		for i := range swaps {
			if err := tx.Create(&swaps[i]).Error; err != nil {
				return err
			}
		}

		if inserted > 0 {
			tracker := models.PackSalesTracker{
				SeriesID:    seriesID,
				TotalSold:   inserted,
				LastChecked: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "series_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"total_sold":   gorm.Expr("pack_sales_trackers.total_sold + ?", inserted),
					"last_checked": now,
				}),
			}).Create(&tracker).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("series_id = ?", seriesID).Delete(&models.CardSnapshotEntry{}).Error; err != nil {
			return err
		}
		for i := range next {
			next[i].ID = 0
			next[i].SeriesID = seriesID
		}
		if len(next) > 0 {
			if err := tx.Create(&next).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTotalValue appends one total-available-value snapshot row.
func (s *Store) SaveTotalValue(seriesID string, totalCents int64, now time.Time) error {
	return s.db.Create(&models.PackTotalValueSnapshot{
		SeriesID:                 seriesID,
		TotalEstimatedValueCents: totalCents,
		SnapshotTime:             now,
	}).Error
}

// SaveValuation stores an EV/ROI snapshot and its per-tier contribution rows
// in one transaction, linking the tier rows to the snapshot id.
func (s *Store) SaveValuation(snapshot models.PackEvRoiSnapshot, tiers []models.PackTierEvContributionSnapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		for i := range tiers {
			tiers[i].SeriesID = snapshot.SeriesID
			tiers[i].EvRoiSnapshotID = snapshot.ID
			tiers[i].SnapshotTime = snapshot.SnapshotTime
		}
		if len(tiers) > 0 {
			if err := tx.Create(&tiers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func flattenSale(seriesID string, sale ConfirmedSale) models.SoldCardEvent {
	card := sale.Card
	event := models.SoldCardEvent{
		SeriesID:                    seriesID,
		CardID:                      card.CardID,
		SnapshotTier:                card.Tier,
		SnapshotPlayerName:          card.PlayerName,
		SnapshotSetName:             card.SetName,
		SnapshotInsertName:          card.InsertName,
		SnapshotGradingCompany:      card.GradingCompany,
		SnapshotOverall:             card.Overall,
		SnapshotEstimatedValueCents: card.EstimatedValueCents,
		SoldAt:                      sale.SoldAt,
		IsHitFeedVerified:           sale.Hit != nil,
	}
	if hit := sale.Hit; hit != nil {
		event.HitFeedEventID = strPtr(hit.EventID)
		event.HitFeedPlayerName = strPtr(hit.PlayerName)
		event.HitFeedSetName = strPtr(hit.SetName)
		event.HitFeedSetNumber = strPtr(hit.SetNumber)
		event.HitFeedParallelName = strPtr(hit.ParallelName)
		event.HitFeedParallelNumber = strPtr(hit.ParallelNumber)
		event.HitFeedParallelTotal = strPtr(hit.ParallelTotal)
		event.HitFeedFrontImageURL = strPtr(hit.FrontImageURL)
		event.HitFeedBackImageURL = strPtr(hit.BackImageURL)
		event.HitFeedGradingCompany = strPtr(hit.GradingCompany)
		event.HitFeedOverall = hit.Overall
		event.HitFeedSeriesName = strPtr(hit.SeriesName)
		event.HitFeedCategoryName = strPtr(hit.CategoryName)
	}
	return event
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
