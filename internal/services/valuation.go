package services

import (
	"math"
	"time"

	"github.com/flipforce/pack-tracker/internal/config"
	"github.com/flipforce/pack-tracker/internal/marketplace"
	"github.com/flipforce/pack-tracker/internal/models"
)

// Buyback parameters: cards are floored at 80% of the pack cost and the
// effective cost is inflated by 10%, modeling a guaranteed-buyback purchase.
const (
	buybackFloorRatio = 0.80
	buybackCostRatio  = 1.10
)

// Valuation is one cycle's EV/ROI computation for a series.
//
// ROI is nil when the pack cost is unknown and +Inf when it is zero; the
// two must stay distinguishable ("unknown cost" is not "free pack").
type Valuation struct {
	ExpectedValueCents        int64
	StaticPackCostCents       *int64
	ROI                       *float64
	ExpectedValueBBCents      *int64
	PackCostBBCents           *int64
	ROIBB                     *float64
	NumPremiumCardsPerPack    int
	NumNonPremiumCardsPerPack int
	Tiers                     []TierContribution
}

// TierContribution is one tier's share of the expected value.
type TierContribution struct {
	TierAPIID             string
	TierName              string
	IsPremium             bool
	HitRate               float64
	NumCardsInTier        int
	AvgValueInTierCents   int64
	TierContributionCents int64
}

// ValuationCalculator computes pack EV and ROI from the freshly fetched pack
// detail. It is re-run every cycle even when the card set is unchanged,
// because hit rates and valuations are always taken from the live payload.
type ValuationCalculator struct {
	cfg config.TrackerConfig
}

func NewValuationCalculator(cfg config.TrackerConfig) *ValuationCalculator {
	return &ValuationCalculator{cfg: cfg}
}

// Compute derives the standard and buyback EV/ROI for one series. category
// is the resolved category label used for the static cost lookup.
func (c *ValuationCalculator) Compute(detail *marketplace.SeriesDetail, category string) Valuation {
	v := Valuation{
		NumPremiumCardsPerPack:    detail.NumPremiumCardsPerPack,
		NumNonPremiumCardsPerPack: detail.NumNonPremiumCardsPerPack,
	}

	var premiumSum, nonPremiumSum float64
	for _, tier := range detail.Tiers {
		hitRate := 0.0
		if tier.HitRate != nil {
			hitRate = *tier.HitRate
		}
		avg := avgTierValueCents(tier.Cards, 0)
		contribution := avg * hitRate

		v.Tiers = append(v.Tiers, TierContribution{
			TierAPIID:             tier.ID,
			TierName:              tier.Name,
			IsPremium:             tier.IsPremium,
			HitRate:               hitRate,
			NumCardsInTier:        len(tier.Cards),
			AvgValueInTierCents:   int64(math.Round(avg)),
			TierContributionCents: int64(math.Round(contribution)),
		})

		if tier.IsPremium {
			premiumSum += contribution
		} else {
			nonPremiumSum += contribution
		}
	}

	v.ExpectedValueCents = int64(math.Round(
		premiumSum*float64(v.NumPremiumCardsPerPack) +
			nonPremiumSum*float64(v.NumNonPremiumCardsPerPack)))

	cost, known := c.cfg.StaticPackCost(category)
	if !known {
		// Unknown cost: ROI stays nil, no buyback figures either.
		return v
	}
	v.StaticPackCostCents = &cost
	v.ROI = roiFor(v.ExpectedValueCents, cost)

	// Buyback variant: re-run the tier sums with the per-card floor.
	floor := int64(math.Round(float64(cost) * buybackFloorRatio))
	costBB := int64(math.Round(float64(cost) * buybackCostRatio))

	var premiumSumBB, nonPremiumSumBB float64
	for _, tier := range detail.Tiers {
		hitRate := 0.0
		if tier.HitRate != nil {
			hitRate = *tier.HitRate
		}
		contribution := avgTierValueCents(tier.Cards, floor) * hitRate
		if tier.IsPremium {
			premiumSumBB += contribution
		} else {
			nonPremiumSumBB += contribution
		}
	}

	evBB := int64(math.Round(
		premiumSumBB*float64(v.NumPremiumCardsPerPack) +
			nonPremiumSumBB*float64(v.NumNonPremiumCardsPerPack)))
	v.ExpectedValueBBCents = &evBB
	v.PackCostBBCents = &costBB
	v.ROIBB = roiFor(evBB, costBB)

	return v
}

// avgTierValueCents is the mean estimated value across a tier's cards, with
// each card's value clamped up to floor. Absent values count as zero (they
// only feed the average here, never a stored monetary field). Empty tiers
// average to zero.
func avgTierValueCents(cards []marketplace.Card, floor int64) float64 {
	if len(cards) == 0 {
		return 0
	}
	var sum float64
	for _, card := range cards {
		var value int64
		if card.EstimatedValueCents != nil {
			value = *card.EstimatedValueCents
		}
		if value < floor {
			value = floor
		}
		sum += float64(value)
	}
	return sum / float64(len(cards))
}

func roiFor(evCents, costCents int64) *float64 {
	var roi float64
	if costCents == 0 {
		roi = math.Inf(1)
	} else {
		roi = float64(evCents)/float64(costCents) - 1.0
	}
	return &roi
}

// Rows converts a valuation into its persistence form.
func (v Valuation) Rows(seriesID string, now time.Time) (models.PackEvRoiSnapshot, []models.PackTierEvContributionSnapshot) {
	snapshot := models.PackEvRoiSnapshot{
		SeriesID:                  seriesID,
		ExpectedValueCents:        v.ExpectedValueCents,
		StaticPackCostCents:       v.StaticPackCostCents,
		ROI:                       v.ROI,
		NumPremiumCardsPerPack:    v.NumPremiumCardsPerPack,
		NumNonPremiumCardsPerPack: v.NumNonPremiumCardsPerPack,
		ExpectedValueBBCents:      v.ExpectedValueBBCents,
		PackCostBBCents:           v.PackCostBBCents,
		ROIBB:                     v.ROIBB,
		SnapshotTime:              now,
	}
	tiers := make([]models.PackTierEvContributionSnapshot, 0, len(v.Tiers))
	for _, tc := range v.Tiers {
		tiers = append(tiers, models.PackTierEvContributionSnapshot{
			TierAPIID:             tc.TierAPIID,
			TierName:              tc.TierName,
			IsPremium:             tc.IsPremium,
			HitRate:               tc.HitRate,
			NumCardsInTier:        tc.NumCardsInTier,
			AvgValueInTierCents:   tc.AvgValueInTierCents,
			TierContributionCents: tc.TierContributionCents,
		})
	}
	return snapshot, tiers
}
