package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flipforce/pack-tracker/internal/marketplace"
)

// SaleVerifier checks whether a disappeared card's sale is corroborated by
// the public hit feed.
type SaleVerifier struct {
	log *logrus.Logger
}

func NewSaleVerifier(log *logrus.Logger) *SaleVerifier {
	return &SaleVerifier{log: log}
}

// Verify scans the hit feed for an item matching cardID (string equality on
// the upstream identifier). When a watermark exists, the hit must have
// posted strictly after it; without a watermark the first positional match
// is accepted, which can pick up a stale feed entry if the feed retains old
// items — known imprecision, kept as-is rather than guessed around.
//
// Hits with a missing or unparseable timestamp are skipped with a warning:
// ambiguity counts against the sale, never for it. Returns the matched hit
// and its parsed timestamp, or nil when nothing qualifies.
func (v *SaleVerifier) Verify(cardID string, hits []marketplace.HitFeedItem, watermark *time.Time) (*marketplace.HitFeedItem, time.Time) {
	if cardID == "" {
		v.log.Warn("sale verification skipped: disappeared card has no card id")
		return nil, time.Time{}
	}

	for i := range hits {
		hit := &hits[i]
		if hit.CardID != cardID {
			continue
		}
		if hit.CreatedAt == "" {
			v.log.WithFields(logrus.Fields{
				"card_id": cardID,
				"hit_id":  hit.ID,
			}).Warn("hit feed item has no createdAt timestamp, skipping")
			continue
		}
		ts, err := parseHitTimestamp(hit.CreatedAt)
		if err != nil {
			v.log.WithFields(logrus.Fields{
				"card_id":    cardID,
				"hit_id":     hit.ID,
				"created_at": hit.CreatedAt,
			}).WithError(err).Warn("unparseable hit feed timestamp, skipping")
			continue
		}
		if watermark != nil && !ts.After(*watermark) {
			continue
		}
		v.log.WithFields(logrus.Fields{
			"card_id": cardID,
			"hit_id":  hit.ID,
			"sold_at": ts,
		}).Info("sale verified on hit feed")
		return hit, ts
	}
	return nil, time.Time{}
}

// parseHitTimestamp accepts the ISO 8601 variants the feed has been seen to
// emit. Timestamps without a zone are taken as UTC.
func parseHitTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
