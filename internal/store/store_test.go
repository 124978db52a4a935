package store

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/flipforce/pack-tracker/internal/database"
	"github.com/flipforce/pack-tracker/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return New(db)
}

func entry(seriesID, cardID, tier string) models.CardSnapshotEntry {
	return models.CardSnapshotEntry{
		SeriesID:     seriesID,
		CardID:       cardID,
		Tier:         tier,
		SnapshotTime: time.Now().UTC(),
	}
}

func TestCommitCycleReplacesSnapshot(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	if err := st.CommitCycle("s1", nil, nil, []models.CardSnapshotEntry{
		entry("s1", "A", "Common"),
		entry("s1", "B", "Grail"),
	}, now); err != nil {
		t.Fatal(err)
	}

	if err := st.CommitCycle("s1", nil, nil, []models.CardSnapshotEntry{
		entry("s1", "C", "Common"),
	}, now); err != nil {
		t.Fatal(err)
	}

	snapshot, err := st.CurrentSnapshot("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot) != 1 || snapshot[0].CardID != "C" {
		t.Errorf("snapshot = %+v, want full replacement with card C", snapshot)
	}
}

func TestCommitCycleSnapshotsAreSeriesScoped(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	st.CommitCycle("s1", nil, nil, []models.CardSnapshotEntry{entry("s1", "A", "Common")}, now)
	st.CommitCycle("s2", nil, nil, []models.CardSnapshotEntry{entry("s2", "B", "Common")}, now)

	// Replacing s1's snapshot must not touch s2's.
	st.CommitCycle("s1", nil, nil, nil, now)

	other, _ := st.CurrentSnapshot("s2")
	if len(other) != 1 || other[0].CardID != "B" {
		t.Errorf("s2 snapshot = %+v, want untouched card B", other)
	}
}

func TestCommitCycleVerifiedSaleIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	sale := ConfirmedSale{
		Card: entry("s1", "B", "Grail"),
		Hit: &models.HitFeedMatch{
			EventID:    "hit-1",
			CardID:     "B",
			PlayerName: "Player B",
		},
		SoldAt: now,
	}

	if err := st.CommitCycle("s1", []ConfirmedSale{sale}, nil, nil, now); err != nil {
		t.Fatal(err)
	}
	// Replaying the same diff (crash between commit and watermark advance)
	// must not duplicate the event nor bump the counter again.
	if err := st.CommitCycle("s1", []ConfirmedSale{sale}, nil, nil, now); err != nil {
		t.Fatal(err)
	}

	events, err := st.SoldEvents("s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d sold events after replay, want 1", len(events))
	}
	if events[0].HitFeedEventID == nil || *events[0].HitFeedEventID != "hit-1" {
		t.Errorf("event id = %v, want hit-1", events[0].HitFeedEventID)
	}
	if !events[0].IsHitFeedVerified {
		t.Error("event should be marked verified")
	}

	var tracker models.PackSalesTracker
	if err := st.db.Where("series_id = ?", "s1").First(&tracker).Error; err != nil {
		t.Fatal(err)
	}
	if tracker.TotalSold != 1 {
		t.Errorf("total sold = %d after replay, want 1", tracker.TotalSold)
	}
}

func TestCommitCycleUnverifiedSalesAlwaysInsert(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	// Two unverified sales with NULL hit ids must both insert; NULLs do not
	// collide on the unique index.
	sales := []ConfirmedSale{
		{Card: entry("s1", "A", "Common"), SoldAt: now},
		{Card: entry("s1", "B", "Common"), SoldAt: now},
	}
	if err := st.CommitCycle("s1", sales, nil, nil, now); err != nil {
		t.Fatal(err)
	}

	events, _ := st.SoldEvents("s1", 0)
	if len(events) != 2 {
		t.Fatalf("got %d sold events, want 2", len(events))
	}
	var tracker models.PackSalesTracker
	if err := st.db.Where("series_id = ?", "s1").First(&tracker).Error; err != nil {
		t.Fatal(err)
	}
	if tracker.TotalSold != 2 {
		t.Errorf("total sold = %d, want 2", tracker.TotalSold)
	}
}

func TestWatermarkRoundtrip(t *testing.T) {
	st := newTestStore(t)

	wm, err := st.Watermark("s1")
	if err != nil {
		t.Fatal(err)
	}
	if wm != nil {
		t.Fatalf("fresh series watermark = %v, want nil", wm)
	}

	first := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	if err := st.AdvanceWatermark("s1", first); err != nil {
		t.Fatal(err)
	}
	wm, err = st.Watermark("s1")
	if err != nil || wm == nil {
		t.Fatalf("watermark = %v (err %v), want %v", wm, err, first)
	}
	if !wm.Equal(first) {
		t.Errorf("watermark = %v, want %v", wm, first)
	}

	second := first.Add(5 * time.Second)
	if err := st.AdvanceWatermark("s1", second); err != nil {
		t.Fatal(err)
	}
	wm, _ = st.Watermark("s1")
	if wm == nil || !wm.Equal(second) {
		t.Errorf("watermark = %v, want advanced to %v", wm, second)
	}
}

func TestRaiseMaxSoldIsMonotonic(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	steps := []struct {
		sold int
		want int
	}{
		{5, 5},
		{3, 5}, // upstream counter dipped; ratchet holds
		{7, 7},
	}
	for _, step := range steps {
		if err := st.RaiseMaxSold("s1", step.sold, now); err != nil {
			t.Fatal(err)
		}
		var row models.PackMaxSold
		if err := st.db.Where("series_id = ?", "s1").First(&row).Error; err != nil {
			t.Fatal(err)
		}
		if row.MaxSold != step.want {
			t.Errorf("after RaiseMaxSold(%d): max = %d, want %d", step.sold, row.MaxSold, step.want)
		}
	}
}

func TestUpsertSeriesUpdatesAndAppendsCounters(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	meta := models.PackSeries{SeriesID: "s1", Name: "Baseball", Tier: "Gold", CostCents: 10000, Status: "active", LastSeen: now}
	if err := st.UpsertSeries(meta, 3, 100); err != nil {
		t.Fatal(err)
	}
	meta.Status = "inactive"
	meta.LastSeen = now.Add(time.Minute)
	if err := st.UpsertSeries(meta, 5, 100); err != nil {
		t.Fatal(err)
	}

	var series []models.PackSeries
	if err := st.db.Find(&series).Error; err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 {
		t.Fatalf("series rows = %d, want 1 (upsert, not append)", len(series))
	}
	if series[0].Status != "inactive" {
		t.Errorf("status = %s, want inactive", series[0].Status)
	}

	counters, err := st.CountersHistory("s1", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(counters) != 2 {
		t.Fatalf("counter snapshots = %d, want 2 (append-only)", len(counters))
	}
	if counters[1].PacksSold != 5 {
		t.Errorf("latest packs sold = %d, want 5", counters[1].PacksSold)
	}
}

func TestSaveValuationLinksTierRows(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	cost := int64(10000)
	roi := -0.55
	snapshot := models.PackEvRoiSnapshot{
		SeriesID:            "s1",
		ExpectedValueCents:  4500,
		StaticPackCostCents: &cost,
		ROI:                 &roi,
		SnapshotTime:        now,
	}
	tiers := []models.PackTierEvContributionSnapshot{
		{TierAPIID: "t1", TierName: "Common", HitRate: 1.0, NumCardsInTier: 4, AvgValueInTierCents: 1000, TierContributionCents: 1000},
		{TierAPIID: "t2", TierName: "Grail", IsPremium: true, HitRate: 0.01, NumCardsInTier: 1, AvgValueInTierCents: 50000, TierContributionCents: 500},
	}
	if err := st.SaveValuation(snapshot, tiers); err != nil {
		t.Fatal(err)
	}

	latest, err := st.LatestEvRoi("s1")
	if err != nil || latest == nil {
		t.Fatalf("latest EV/ROI missing (err %v)", err)
	}
	if latest.ExpectedValueCents != 4500 {
		t.Errorf("EV = %d, want 4500", latest.ExpectedValueCents)
	}

	linked, err := st.TierContributions(latest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 2 {
		t.Fatalf("linked tier rows = %d, want 2", len(linked))
	}
	for _, row := range linked {
		if row.SeriesID != "s1" {
			t.Errorf("tier row series = %s, want s1", row.SeriesID)
		}
		if row.EvRoiSnapshotID != latest.ID {
			t.Errorf("tier row snapshot link = %d, want %d", row.EvRoiSnapshotID, latest.ID)
		}
	}
}

func TestSoldEventsLimitAndOrder(t *testing.T) {
	st := newTestStore(t)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		sale := ConfirmedSale{
			Card:   entry("s1", fmt.Sprintf("card-%d", i), "Common"),
			SoldAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.CommitCycle("s1", []ConfirmedSale{sale}, nil, nil, base); err != nil {
			t.Fatal(err)
		}
	}

	events, err := st.SoldEvents("s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want limit of 2", len(events))
	}
	if events[0].CardID != "card-2" {
		t.Errorf("newest event = %s, want card-2 (sold_at DESC)", events[0].CardID)
	}
}
