package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flipforce/pack-tracker/internal/config"
	"github.com/flipforce/pack-tracker/internal/marketplace"
	"github.com/flipforce/pack-tracker/internal/metrics"
	"github.com/flipforce/pack-tracker/internal/models"
	"github.com/flipforce/pack-tracker/internal/store"
)

// ReconciliationEngine runs the poll loop: one sweep resolves every tracked
// series, and each series cycle diffs the live pack contents against the
// stored snapshot, classifies disappearances, refreshes the valuation, and
// advances the verification watermark.
//
// Series are processed strictly sequentially within a sweep. A keyed mutex
// makes the per-series critical section explicit anyway, so a second engine
// instance in the same process cannot interleave diffs for one series; the
// max-sold ratchet additionally takes a database row lock for multi-process
// deployments.
type ReconciliationEngine struct {
	api       MarketplaceAPI
	store     *store.Store
	resolver  *SeriesResolver
	verifier  *SaleVerifier
	valuation *ValuationCalculator
	cfg       config.TrackerConfig
	log       *logrus.Logger

	seriesLocks sync.Map // series id -> *sync.Mutex

	mu              sync.RWMutex
	lastSweepStart  time.Time
	lastSweepTook   time.Duration
	sweepsCompleted int
	salesConfirmed  int
	swapsFlagged    int
}

// EngineStatus is the tracker state exposed on the API.
type EngineStatus struct {
	LastSweepStart  time.Time     `json:"last_sweep_start"`
	LastSweepTook   time.Duration `json:"last_sweep_took_ns"`
	NextSweepAfter  time.Time     `json:"next_sweep_after"`
	SweepsCompleted int           `json:"sweeps_completed"`
	SalesConfirmed  int           `json:"sales_confirmed"`
	SwapsFlagged    int           `json:"swaps_flagged"`
	TrackedTargets  int           `json:"tracked_targets"`
}

func NewReconciliationEngine(api MarketplaceAPI, st *store.Store, cfg config.TrackerConfig, log *logrus.Logger) *ReconciliationEngine {
	return &ReconciliationEngine{
		api:       api,
		store:     st,
		resolver:  NewSeriesResolver(api, log),
		verifier:  NewSaleVerifier(log),
		valuation: NewValuationCalculator(cfg),
		cfg:       cfg,
		log:       log,
	}
}

// Start runs sweeps until the context is cancelled. A sweep that could not
// resolve any series waits the longer retry interval before trying again;
// the fixed-interval re-poll is the only retry mechanism, there are no
// retries within a cycle.
func (e *ReconciliationEngine) Start(ctx context.Context) {
	e.log.WithField("targets", len(e.cfg.Targets)).Info("reconciliation engine started")

	for {
		processed := e.RunSweep(ctx)

		wait := e.cfg.PollInterval
		if processed == 0 {
			wait = e.cfg.RetryInterval
		}
		select {
		case <-ctx.Done():
			e.log.Info("reconciliation engine stopping")
			return
		case <-time.After(wait):
		}
	}
}

// RunSweep processes every resolvable target once and returns the number of
// series cycles that ran. Exported for the manual-trigger API endpoint.
func (e *ReconciliationEngine) RunSweep(ctx context.Context) int {
	sweepStart := time.Now().UTC()
	sweepLog := e.log.WithField("sweep", uuid.NewString()[:8])

	targets := e.resolver.ResolveAll(ctx, e.cfg.Targets)
	if len(targets) == 0 {
		sweepLog.Warn("no target series resolved this sweep")
		return 0
	}

	processed := 0
	for _, target := range targets {
		if ctx.Err() != nil {
			return processed
		}
		if err := e.processSeries(ctx, sweepLog, sweepStart, target); err != nil {
			sweepLog.WithFields(logrus.Fields{
				"series_id": target.SeriesID,
				"category":  target.Target.Category,
				"series":    target.Target.Series,
			}).WithError(err).Error("series cycle failed, continuing with next series")
			continue
		}
		processed++
	}

	metrics.SweepsTotal.Inc()
	e.mu.Lock()
	e.lastSweepStart = sweepStart
	e.lastSweepTook = time.Since(sweepStart)
	e.sweepsCompleted++
	e.mu.Unlock()

	sweepLog.WithFields(logrus.Fields{
		"processed": processed,
		"took":      time.Since(sweepStart),
	}).Info("sweep completed")
	return processed
}

// processSeries runs one series cycle. A fetch failure skips the series with
// nothing mutated; a persistence failure rolls back its transaction and
// leaves the watermark unadvanced, so the next sweep re-diffs from the last
// committed snapshot (safe: verified inserts dedup, snapshot replace is
// idempotent).
func (e *ReconciliationEngine) processSeries(ctx context.Context, sweepLog *logrus.Entry, sweepStart time.Time, rt ResolvedTarget) error {
	cycleStart := time.Now()

	detail, err := e.api.GetSeriesDetail(ctx, rt.SeriesID)
	if err != nil {
		metrics.FetchFailuresTotal.WithLabelValues("series_detail").Inc()
		metrics.SeriesSkippedTotal.WithLabelValues("fetch_failure").Inc()
		sweepLog.WithField("series_id", rt.SeriesID).WithError(err).
			Warn("series detail fetch failed, skipping series this cycle")
		return nil
	}

	// The detail payload's id is authoritative; discovery ids can go stale.
	seriesID := detail.ID
	log := sweepLog.WithFields(logrus.Fields{
		"series_id": seriesID,
		"category":  rt.Target.Category,
		"series":    rt.Target.Series,
	})

	lock := e.lockFor(seriesID)
	lock.Lock()
	defer lock.Unlock()

	watermark, err := e.store.Watermark(seriesID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	category := categoryLabel(detail, rt.Target.Category)
	packsSold, packsTotal := 0, 0
	if detail.PacksSold != nil {
		packsSold = *detail.PacksSold
	}
	if detail.PacksTotal != nil {
		packsTotal = *detail.PacksTotal
	}

	meta := models.PackSeries{
		SeriesID:  seriesID,
		Name:      detail.Name,
		Tier:      category,
		CostCents: e.metadataCost(detail, category),
		Status:    seriesStatus(detail),
		LastSeen:  now,
	}
	if err := e.store.UpsertSeries(meta, packsSold, packsTotal); err != nil {
		return err
	}

	current, totalValueCents := flattenDetail(detail, now)
	if err := e.store.SaveTotalValue(seriesID, totalValueCents, now); err != nil {
		return err
	}

	sales, swaps, err := e.reconcile(ctx, log, seriesID, current, watermark)
	if err != nil {
		return err
	}
	if err := e.store.CommitCycle(seriesID, sales, swaps, current, now); err != nil {
		return err
	}

	valuation := e.valuation.Compute(detail, category)
	snapshot, tiers := valuation.Rows(seriesID, now)
	if err := e.store.SaveValuation(snapshot, tiers); err != nil {
		return err
	}
	metrics.PackExpectedValue.WithLabelValues(seriesID).Set(float64(valuation.ExpectedValueCents))
	if valuation.ROI != nil {
		metrics.PackROI.WithLabelValues(seriesID).Set(*valuation.ROI)
	}

	// The watermark moves to the shared sweep start, not this series'
	// completion time: hits posting while later series were processed must
	// still be inside the next cycle's verification window.
	if err := e.store.AdvanceWatermark(seriesID, sweepStart); err != nil {
		return err
	}

	if err := e.store.RaiseMaxSold(seriesID, packsSold, now); err != nil {
		return err
	}

	metrics.SeriesCyclesTotal.Inc()
	metrics.ConfirmedSalesTotal.Add(float64(len(sales)))
	metrics.SuspectedSwapsTotal.Add(float64(len(swaps)))
	metrics.CycleDuration.Observe(time.Since(cycleStart).Seconds())

	e.mu.Lock()
	e.salesConfirmed += len(sales)
	e.swapsFlagged += len(swaps)
	e.mu.Unlock()

	log.WithFields(logrus.Fields{
		"confirmed_sold": len(sales),
		"swaps":          len(swaps),
		"cards":          len(current),
		"total_value":    totalValueCents,
	}).Info("series cycle completed")
	return nil
}

// reconcile diffs the stored snapshot against the current card set and
// classifies every disappearance. Cards in both sets need no action; new
// arrivals are only recorded as part of the replacement snapshot.
func (e *ReconciliationEngine) reconcile(ctx context.Context, log *logrus.Entry, seriesID string, current []models.CardSnapshotEntry, watermark *time.Time) ([]store.ConfirmedSale, []models.SuspectedSwap, error) {
	previous, err := e.store.CurrentSnapshot(seriesID)
	if err != nil {
		return nil, nil, err
	}

	currentIDs := make(map[string]struct{}, len(current))
	for _, card := range current {
		currentIDs[card.CardID] = struct{}{}
	}

	var disappeared []models.CardSnapshotEntry
	needVerification := false
	for _, card := range previous {
		if _, stillThere := currentIDs[card.CardID]; stillThere {
			continue
		}
		disappeared = append(disappeared, card)
		if e.cfg.IsVerificationTier(card.Tier) {
			needVerification = true
		}
	}
	if len(disappeared) == 0 {
		return nil, nil, nil
	}

	// The hit feed is only worth a request when a chase-tier card is gone;
	// low-tier churn is too noisy to corroborate.
	var hits []marketplace.HitFeedItem
	if needVerification {
		hits, err = e.api.GetHitFeed(ctx, 0, 0)
		if err != nil {
			metrics.FetchFailuresTotal.WithLabelValues("hit_feed").Inc()
			log.WithError(err).Warn("hit feed fetch failed, verification-required disappearances will be flagged as swaps")
			hits = nil
		}
	}

	now := time.Now().UTC()
	var sales []store.ConfirmedSale
	var swaps []models.SuspectedSwap
	for _, card := range disappeared {
		if !e.cfg.IsVerificationTier(card.Tier) {
			// Below the verification tiers a disappearance is assumed sold.
			sales = append(sales, store.ConfirmedSale{Card: card, SoldAt: now})
			continue
		}

		hit, soldAt := e.verifier.Verify(card.CardID, hits, watermark)
		if hit == nil {
			log.WithFields(logrus.Fields{
				"card_id": card.CardID,
				"tier":    card.Tier,
			}).Info("disappearance not corroborated by hit feed, logging suspected swap")
			swaps = append(swaps, models.SuspectedSwap{
				SeriesID:                    seriesID,
				CardID:                      card.CardID,
				SnapshotTier:                card.Tier,
				SnapshotPlayerName:          card.PlayerName,
				SnapshotEstimatedValueCents: card.EstimatedValueCents,
				DisappearedAt:               now,
			})
			continue
		}
		sales = append(sales, store.ConfirmedSale{
			Card:   card,
			Hit:    hitMatch(hit),
			SoldAt: soldAt,
		})
	}
	return sales, swaps, nil
}

// Status reports engine state for the dashboard.
func (e *ReconciliationEngine) Status() EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EngineStatus{
		LastSweepStart:  e.lastSweepStart,
		LastSweepTook:   e.lastSweepTook,
		NextSweepAfter:  e.lastSweepStart.Add(e.lastSweepTook + e.cfg.PollInterval),
		SweepsCompleted: e.sweepsCompleted,
		SalesConfirmed:  e.salesConfirmed,
		SwapsFlagged:    e.swapsFlagged,
		TrackedTargets:  len(e.cfg.Targets),
	}
}

func (e *ReconciliationEngine) lockFor(seriesID string) *sync.Mutex {
	lock, _ := e.seriesLocks.LoadOrStore(seriesID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// metadataCost resolves the cost recorded on the metadata row: the static
// table wins for consistency, then the API-reported pack cost, then the
// category price, then zero.
func (e *ReconciliationEngine) metadataCost(detail *marketplace.SeriesDetail, category string) int64 {
	if cost, ok := e.cfg.StaticPackCost(category); ok {
		return cost
	}
	if detail.CostCents != nil {
		return *detail.CostCents
	}
	if detail.Category != nil && detail.Category.PriceCents != nil {
		return *detail.Category.PriceCents
	}
	return 0
}

func categoryLabel(detail *marketplace.SeriesDetail, fallback string) string {
	if detail.Category != nil && detail.Category.Name != "" {
		return detail.Category.Name
	}
	return fallback
}

func seriesStatus(detail *marketplace.SeriesDetail) string {
	if detail.IsActive {
		return "active"
	}
	return "inactive"
}

// flattenDetail collapses the tiered card lists into one snapshot set,
// tagging each card with its tier name, and sums the estimated values.
func flattenDetail(detail *marketplace.SeriesDetail, snapshotTime time.Time) ([]models.CardSnapshotEntry, int64) {
	var entries []models.CardSnapshotEntry
	var totalCents int64
	for _, tier := range detail.Tiers {
		for _, card := range tier.Cards {
			if card.ID == "" {
				continue
			}
			entries = append(entries, models.CardSnapshotEntry{
				SeriesID:            detail.ID,
				CardID:              card.ID,
				Tier:                tier.Name,
				PlayerName:          card.PlayerName,
				Overall:             card.Overall,
				InsertName:          card.InsertName,
				SetNumber:           card.SetNumber,
				SetName:             card.SetName,
				ParallelName:        card.ParallelName,
				ParallelNumber:      intPtrString(card.ParallelNumber),
				ParallelTotal:       intPtrString(card.ParallelTotal),
				FrontImageURL:       card.FrontImageURL,
				BackImageURL:        card.BackImageURL,
				GradingCompany:      card.GradingCompany,
				EstimatedValueCents: card.EstimatedValueCents,
				SnapshotTime:        snapshotTime,
			})
			if card.EstimatedValueCents != nil {
				totalCents += *card.EstimatedValueCents
			}
		}
	}
	return entries, totalCents
}

func hitMatch(hit *marketplace.HitFeedItem) *models.HitFeedMatch {
	return &models.HitFeedMatch{
		EventID:        hit.ID,
		CardID:         hit.CardID,
		PlayerName:     hit.PlayerName,
		Overall:        hit.Overall,
		SetName:        hit.SetName,
		SetNumber:      hit.SetNumber,
		ParallelName:   hit.ParallelName,
		ParallelNumber: intPtrString(hit.ParallelNumber),
		ParallelTotal:  intPtrString(hit.ParallelTotal),
		FrontImageURL:  hit.FrontImageURL,
		BackImageURL:   hit.BackImageURL,
		GradingCompany: hit.GradingCompany,
		SeriesName:     hit.SeriesName,
		CategoryName:   hit.CategoryName,
	}
}

func intPtrString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
