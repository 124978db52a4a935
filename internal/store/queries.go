package store

import (
	"time"

	"github.com/flipforce/pack-tracker/internal/models"
)

// Read-side queries backing the dashboard API. All of these are over
// append-only or latest-row tables; none mutate.

// SeriesOverview is one dashboard row: series metadata joined with the
// latest derived aggregates. Pointer fields are nil when an aggregate has
// not been computed yet; the dashboard renders those as N/A.
type SeriesOverview struct {
	models.PackSeries
	TotalSold                *int     `json:"total_sold"`
	MaxSold                  *int     `json:"max_sold"`
	LatestTotalValueCents    *int64   `json:"latest_total_value_cents"`
	LatestExpectedValueCents *int64   `json:"latest_expected_value_cents"`
	LatestROI                *float64 `json:"latest_roi"`
	LatestROIBB              *float64 `json:"latest_roi_bb"`
}

func (s *Store) ListSeriesOverviews() ([]SeriesOverview, error) {
	var series []models.PackSeries
	if err := s.db.Order("series_id").Find(&series).Error; err != nil {
		return nil, err
	}

	overviews := make([]SeriesOverview, 0, len(series))
	for _, sr := range series {
		ov := SeriesOverview{PackSeries: sr}

		var tracker models.PackSalesTracker
		if err := s.db.Where("series_id = ?", sr.SeriesID).First(&tracker).Error; err == nil {
			ov.TotalSold = &tracker.TotalSold
		}
		var ratchet models.PackMaxSold
		if err := s.db.Where("series_id = ?", sr.SeriesID).First(&ratchet).Error; err == nil {
			ov.MaxSold = &ratchet.MaxSold
		}
		var value models.PackTotalValueSnapshot
		if err := s.db.Where("series_id = ?", sr.SeriesID).
			Order("snapshot_time DESC").First(&value).Error; err == nil {
			ov.LatestTotalValueCents = &value.TotalEstimatedValueCents
		}
		if evroi, err := s.LatestEvRoi(sr.SeriesID); err == nil && evroi != nil {
			ov.LatestExpectedValueCents = &evroi.ExpectedValueCents
			ov.LatestROI = evroi.ROI
			ov.LatestROIBB = evroi.ROIBB
		}
		overviews = append(overviews, ov)
	}
	return overviews, nil
}

// LatestEvRoi returns the newest EV/ROI snapshot, or nil when none exists.
func (s *Store) LatestEvRoi(seriesID string) (*models.PackEvRoiSnapshot, error) {
	var snapshot models.PackEvRoiSnapshot
	err := s.db.Where("series_id = ?", seriesID).
		Order("snapshot_time DESC").First(&snapshot).Error
	if err != nil {
		return nil, nil
	}
	return &snapshot, nil
}

func (s *Store) EvRoiHistory(seriesID string, since time.Time) ([]models.PackEvRoiSnapshot, error) {
	var snapshots []models.PackEvRoiSnapshot
	q := s.db.Where("series_id = ?", seriesID).Order("snapshot_time ASC")
	if !since.IsZero() {
		q = q.Where("snapshot_time >= ?", since)
	}
	err := q.Find(&snapshots).Error
	return snapshots, err
}

// EvRoiExtremes returns the historical min and max expected value for a
// series. ok is false when no snapshots exist.
func (s *Store) EvRoiExtremes(seriesID string) (minCents, maxCents int64, ok bool, err error) {
	type row struct {
		MinEv *int64
		MaxEv *int64
	}
	var r row
	err = s.db.Model(&models.PackEvRoiSnapshot{}).
		Select("MIN(expected_value_cents) as min_ev, MAX(expected_value_cents) as max_ev").
		Where("series_id = ?", seriesID).
		Scan(&r).Error
	if err != nil || r.MinEv == nil || r.MaxEv == nil {
		return 0, 0, false, err
	}
	return *r.MinEv, *r.MaxEv, true, nil
}

func (s *Store) TotalValueTrend(seriesID string, since time.Time) ([]models.PackTotalValueSnapshot, error) {
	var snapshots []models.PackTotalValueSnapshot
	q := s.db.Where("series_id = ?", seriesID).Order("snapshot_time ASC")
	if !since.IsZero() {
		q = q.Where("snapshot_time >= ?", since)
	}
	err := q.Find(&snapshots).Error
	return snapshots, err
}

func (s *Store) CountersHistory(seriesID string, since time.Time) ([]models.PackCountersSnapshot, error) {
	var snapshots []models.PackCountersSnapshot
	q := s.db.Where("series_id = ?", seriesID).Order("snapshot_time ASC")
	if !since.IsZero() {
		q = q.Where("snapshot_time >= ?", since)
	}
	err := q.Find(&snapshots).Error
	return snapshots, err
}

func (s *Store) SoldEvents(seriesID string, limit int) ([]models.SoldCardEvent, error) {
	var events []models.SoldCardEvent
	q := s.db.Order("sold_at DESC")
	if seriesID != "" {
		q = q.Where("series_id = ?", seriesID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

func (s *Store) SuspectedSwaps(seriesID string, limit int) ([]models.SuspectedSwap, error) {
	var swaps []models.SuspectedSwap
	q := s.db.Order("disappeared_at DESC")
	if seriesID != "" {
		q = q.Where("series_id = ?", seriesID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&swaps).Error
	return swaps, err
}

// TierContributions returns the per-tier breakdown rows for one EV/ROI
// snapshot.
func (s *Store) TierContributions(evRoiSnapshotID uint) ([]models.PackTierEvContributionSnapshot, error) {
	var tiers []models.PackTierEvContributionSnapshot
	err := s.db.Where("ev_roi_snapshot_id = ?", evRoiSnapshotID).
		Order("tier_name").Find(&tiers).Error
	return tiers, err
}
