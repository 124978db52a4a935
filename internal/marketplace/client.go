// Package marketplace is the HTTP client for the upstream trading-card
// marketplace API: category discovery, per-series pack detail, and the
// public card hit feed. Failures come back as errors, never panics; callers
// decide whether to skip a series or retry next sweep.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Client calls the marketplace API with fixed pacing between requests.
// The upstream is a consumer site, so requests carry browser-style headers.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	limiter      *rate.Limiter
	hitFeedLimit int
	log          *logrus.Logger
}

type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestPacing  time.Duration
	HitFeedLimit   int
}

func NewClient(opts Options, log *logrus.Logger) *Client {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestPacing > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestPacing), 1)
	}
	hitFeedLimit := opts.HitFeedLimit
	if hitFeedLimit <= 0 {
		hitFeedLimit = 50
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		limiter:      limiter,
		hitFeedLimit: hitFeedLimit,
		log:          log,
	}
}

// ListCategories fetches the category overview used for series discovery.
func (c *Client) ListCategories(ctx context.Context) (*CategoryList, error) {
	var out CategoryList
	if err := c.get(ctx, c.baseURL+"/slab-pack-categories", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSeriesDetail fetches the full pack contents for one series. The id in
// the response is authoritative and may differ from the discovery-time id.
func (c *Client) GetSeriesDetail(ctx context.Context, seriesID string) (*SeriesDetail, error) {
	var out SeriesDetail
	if err := c.get(ctx, c.baseURL+"/slab-pack-series/"+url.PathEscape(seriesID), nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("series detail for %s missing id", seriesID)
	}
	return &out, nil
}

// GetHitFeed fetches one page of recently verified sales across all
// categories.
func (c *Client) GetHitFeed(ctx context.Context, limit, offset int) ([]HitFeedItem, error) {
	if limit <= 0 {
		limit = c.hitFeedLimit
	}
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("category", "all")

	var out HitFeedPage
	if err := c.get(ctx, c.baseURL+"/card-hit-feed", params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) get(ctx context.Context, reqURL string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36")

	c.log.WithField("url", reqURL).Debug("marketplace request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("marketplace returned status %d for %s", resp.StatusCode, reqURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode marketplace response: %w", err)
	}
	return nil
}
