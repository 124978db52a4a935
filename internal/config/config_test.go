package config

import "testing"

func TestStaticPackCost(t *testing.T) {
	cfg := TrackerConfig{
		StaticPackCostsCents: map[string]int64{
			"Gold":  10000,
			"Misc.": 2500,
		},
	}

	tests := []struct {
		name     string
		category string
		want     int64
		wantOK   bool
	}{
		{"exact match", "Gold", 10000, true},
		{"exact match with dot", "Misc.", 2500, true},
		{"dot stripped upstream", "Misc", 2500, true},
		{"dot added upstream", "Gold.", 10000, true},
		{"unknown", "Platinum", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cfg.StaticPackCost(tt.category)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("StaticPackCost(%q) = (%d, %v), want (%d, %v)", tt.category, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStaticPackCostZeroIsKnown(t *testing.T) {
	cfg := TrackerConfig{StaticPackCostsCents: map[string]int64{"Promo": 0}}

	got, ok := cfg.StaticPackCost("Promo")
	if !ok || got != 0 {
		t.Errorf("StaticPackCost(Promo) = (%d, %v), want (0, true): free is not unknown", got, ok)
	}
}

func TestIsVerificationTier(t *testing.T) {
	cfg := TrackerConfig{VerificationTiers: []string{"Grail", "Chase"}}

	tests := []struct {
		tier string
		want bool
	}{
		{"Grail", true},
		{"Chase", true},
		{"Common", false},
		{"grail", false}, // tier names come from our own snapshot, exact case
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.IsVerificationTier(tt.tier); got != tt.want {
			t.Errorf("IsVerificationTier(%q) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Marketplace: MarketplaceConfig{BaseURL: "https://api.example.com"},
		Tracker: TrackerConfig{
			PollInterval: 1,
			Targets:      []TargetSeries{{Category: "Gold", Series: "Baseball"}},
		},
	}
	if err := valid.validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	noTargets := valid
	noTargets.Tracker.Targets = nil
	if err := noTargets.validate(); err == nil {
		t.Error("config without targets should be rejected")
	}

	noBaseURL := valid
	noBaseURL.Marketplace.BaseURL = ""
	if err := noBaseURL.validate(); err == nil {
		t.Error("config without a marketplace base URL should be rejected")
	}

	badInterval := valid
	badInterval.Tracker.PollInterval = 0
	if err := badInterval.validate(); err == nil {
		t.Error("config with a non-positive poll interval should be rejected")
	}
}
