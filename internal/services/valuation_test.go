package services

import (
	"math"
	"testing"

	"github.com/flipforce/pack-tracker/internal/config"
	"github.com/flipforce/pack-tracker/internal/marketplace"
)

func testTrackerConfig() config.TrackerConfig {
	return config.TrackerConfig{
		VerificationTiers: []string{"Grail", "Chase"},
		StaticPackCostsCents: map[string]int64{
			"Gold": 10000,
			"Free": 0,
		},
	}
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

// singleCardDetail builds a payload with one non-premium tier holding one
// card, drawn with certainty, in a one-slot pack. EV equals the card value.
func singleCardDetail(valueCents int64) *marketplace.SeriesDetail {
	return &marketplace.SeriesDetail{
		ID:                        "series-1",
		NumNonPremiumCardsPerPack: 1,
		Tiers: []marketplace.Tier{
			{
				ID:      "t1",
				Name:    "Common",
				HitRate: f64(1.0),
				Cards:   []marketplace.Card{{ID: "c1", EstimatedValueCents: i64(valueCents)}},
			},
		},
	}
}

func TestROISignBoundary(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	tests := []struct {
		name    string
		ev      int64
		wantROI float64
	}{
		{"below cost", 9000, -0.10},
		{"above cost", 11000, 0.10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := calc.Compute(singleCardDetail(tt.ev), "Gold")
			if v.ExpectedValueCents != tt.ev {
				t.Fatalf("ExpectedValueCents = %d, want %d", v.ExpectedValueCents, tt.ev)
			}
			if v.ROI == nil {
				t.Fatal("ROI is nil, want a value")
			}
			if math.Abs(*v.ROI-tt.wantROI) > 1e-9 {
				t.Errorf("ROI = %v, want %v", *v.ROI, tt.wantROI)
			}
		})
	}
}

func TestROIUnknownCostIsNil(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	v := calc.Compute(singleCardDetail(9000), "Unmapped")
	if v.ROI != nil {
		t.Errorf("ROI = %v, want nil for unknown cost", *v.ROI)
	}
	if v.StaticPackCostCents != nil {
		t.Errorf("StaticPackCostCents = %v, want nil", *v.StaticPackCostCents)
	}
	if v.ExpectedValueBBCents != nil || v.ROIBB != nil {
		t.Error("buyback figures should be absent when cost is unknown")
	}
}

func TestROIZeroCostIsInf(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	v := calc.Compute(singleCardDetail(9000), "Free")
	if v.ROI == nil || !math.IsInf(*v.ROI, 1) {
		t.Errorf("ROI = %v, want +Inf for zero cost", v.ROI)
	}
}

func TestBuybackFloorEffect(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	// One card at 500 cents, pack cost 10000 => floor 8000, inflated cost
	// 11000. The buyback average must use the floor, not the card value.
	v := calc.Compute(singleCardDetail(500), "Gold")

	if v.ExpectedValueCents != 500 {
		t.Fatalf("standard EV = %d, want 500", v.ExpectedValueCents)
	}
	if v.ExpectedValueBBCents == nil {
		t.Fatal("buyback EV missing")
	}
	if *v.ExpectedValueBBCents != 8000 {
		t.Errorf("buyback EV = %d, want 8000 (floored)", *v.ExpectedValueBBCents)
	}
	if v.PackCostBBCents == nil || *v.PackCostBBCents != 11000 {
		t.Errorf("buyback cost = %v, want 11000", v.PackCostBBCents)
	}
	if *v.ExpectedValueBBCents < v.ExpectedValueCents {
		t.Error("buyback EV must never be below standard EV for the same payload")
	}
	wantROIBB := 8000.0/11000.0 - 1.0
	if v.ROIBB == nil || math.Abs(*v.ROIBB-wantROIBB) > 1e-9 {
		t.Errorf("buyback ROI = %v, want %v", v.ROIBB, wantROIBB)
	}
}

func TestEmptyTierContributesZero(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	detail := singleCardDetail(9000)
	detail.Tiers = append(detail.Tiers, marketplace.Tier{
		ID:      "t2",
		Name:    "Grail",
		HitRate: f64(0.5),
		Cards:   nil,
	})

	v := calc.Compute(detail, "Gold")
	if v.ExpectedValueCents != 9000 {
		t.Errorf("EV = %d, want 9000 (empty tier must contribute 0)", v.ExpectedValueCents)
	}
	if len(v.Tiers) != 2 {
		t.Fatalf("tier contributions = %d, want 2", len(v.Tiers))
	}
	for _, tc := range v.Tiers {
		if tc.TierName == "Grail" && tc.TierContributionCents != 0 {
			t.Errorf("empty tier contribution = %d, want 0", tc.TierContributionCents)
		}
	}
}

func TestPremiumSlotPartition(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	// Premium tier: avg 6000 at 50% => 3000/slot. Non-premium: avg 1000 at
	// 100% => 1000/slot. Two premium slots, three non-premium slots.
	detail := &marketplace.SeriesDetail{
		ID:                        "series-1",
		NumPremiumCardsPerPack:    2,
		NumNonPremiumCardsPerPack: 3,
		Tiers: []marketplace.Tier{
			{
				ID: "p", Name: "Chase", IsPremium: true, HitRate: f64(0.5),
				Cards: []marketplace.Card{
					{ID: "a", EstimatedValueCents: i64(4000)},
					{ID: "b", EstimatedValueCents: i64(8000)},
				},
			},
			{
				ID: "n", Name: "Common", HitRate: f64(1.0),
				Cards: []marketplace.Card{{ID: "c", EstimatedValueCents: i64(1000)}},
			},
		},
	}

	v := calc.Compute(detail, "Gold")
	want := int64(2*3000 + 3*1000)
	if v.ExpectedValueCents != want {
		t.Errorf("EV = %d, want %d", v.ExpectedValueCents, want)
	}
}

func TestMissingCardValueCountsAsZeroInAverage(t *testing.T) {
	calc := NewValuationCalculator(testTrackerConfig())

	detail := singleCardDetail(4000)
	detail.Tiers[0].Cards = append(detail.Tiers[0].Cards, marketplace.Card{ID: "c2"})

	v := calc.Compute(detail, "Gold")
	if v.ExpectedValueCents != 2000 {
		t.Errorf("EV = %d, want 2000 (nil value averages as zero)", v.ExpectedValueCents)
	}
}
