package services

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/flipforce/pack-tracker/internal/config"
	"github.com/flipforce/pack-tracker/internal/marketplace"
)

const resolverCacheSize = 256

// MarketplaceAPI is the slice of the marketplace client the tracker needs;
// tests substitute a fake.
type MarketplaceAPI interface {
	ListCategories(ctx context.Context) (*marketplace.CategoryList, error)
	GetSeriesDetail(ctx context.Context, seriesID string) (*marketplace.SeriesDetail, error)
	GetHitFeed(ctx context.Context, limit, offset int) ([]marketplace.HitFeedItem, error)
}

// ResolvedTarget pairs a configured target with its upstream series id for
// one sweep.
type ResolvedTarget struct {
	Target   config.TargetSeries
	SeriesID string
}

// SeriesResolver maps configured (category, series) targets to upstream
// series ids via the categories endpoint. Resolutions are cached so a sweep
// can still run off the last known ids when the discovery fetch fails.
type SeriesResolver struct {
	api   MarketplaceAPI
	cache *lru.Cache[string, string]
	log   *logrus.Logger
}

func NewSeriesResolver(api MarketplaceAPI, log *logrus.Logger) *SeriesResolver {
	cache, _ := lru.New[string, string](resolverCacheSize)
	return &SeriesResolver{api: api, cache: cache, log: log}
}

// ResolveAll resolves every target for this sweep. Targets that cannot be
// resolved are logged and omitted; the caller skips them for the cycle. On a
// categories fetch failure the resolver falls back to cached ids, so a
// transient discovery outage does not stall tracking.
func (r *SeriesResolver) ResolveAll(ctx context.Context, targets []config.TargetSeries) []ResolvedTarget {
	categories, err := r.api.ListCategories(ctx)
	if err != nil {
		r.log.WithError(err).Warn("categories fetch failed, resolving from cache")
		return r.resolveFromCache(targets)
	}

	resolved := make([]ResolvedTarget, 0, len(targets))
	for _, target := range targets {
		id := findSeriesID(categories, target)
		if id == "" {
			r.log.WithFields(logrus.Fields{
				"category": target.Category,
				"series":   target.Series,
			}).Warn("target series not found on categories endpoint")
			continue
		}
		r.cache.Add(cacheKey(target), id)
		resolved = append(resolved, ResolvedTarget{Target: target, SeriesID: id})
	}
	return resolved
}

func (r *SeriesResolver) resolveFromCache(targets []config.TargetSeries) []ResolvedTarget {
	resolved := make([]ResolvedTarget, 0, len(targets))
	for _, target := range targets {
		if id, ok := r.cache.Get(cacheKey(target)); ok {
			resolved = append(resolved, ResolvedTarget{Target: target, SeriesID: id})
		}
	}
	return resolved
}

func findSeriesID(categories *marketplace.CategoryList, target config.TargetSeries) string {
	for _, category := range categories.Items {
		if !strings.EqualFold(category.Name, target.Category) {
			continue
		}
		for _, series := range category.Series {
			if strings.EqualFold(series.Name, target.Series) {
				return series.ID
			}
		}
	}
	return ""
}

func cacheKey(target config.TargetSeries) string {
	return strings.ToLower(target.Category) + "/" + strings.ToLower(target.Series)
}
