package marketplace

// Every upstream field is optional; pointer fields distinguish absent from
// zero where the difference matters downstream (monetary values, counters).

// CategoryList is the discovery payload: categories with their series.
type CategoryList struct {
	Items []Category `json:"items"`
}

type Category struct {
	Name   string      `json:"name"`
	Series []SeriesRef `json:"series"`
}

type SeriesRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SeriesDetail is the full pack state for one series.
type SeriesDetail struct {
	ID                        string       `json:"id"`
	Name                      string       `json:"name"`
	Category                  *CategoryRef `json:"category"`
	CostCents                 *int64       `json:"costCents"`
	PacksSold                 *int         `json:"packsSold"`
	PacksTotal                *int         `json:"packsTotal"`
	IsActive                  bool         `json:"isActive"`
	NumPremiumCardsPerPack    int          `json:"numPremiumCardsPerPack"`
	NumNonPremiumCardsPerPack int          `json:"numNonPremiumCardsPerPack"`
	Tiers                     []Tier       `json:"tiers"`
}

type CategoryRef struct {
	Name       string `json:"name"`
	PriceCents *int64 `json:"priceCents"`
}

type Tier struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	IsPremium bool     `json:"isPremium"`
	HitRate   *float64 `json:"hitRate"`
	Cards     []Card   `json:"cards"`
}

type Card struct {
	ID                  string   `json:"id"`
	PlayerName          string   `json:"playerName"`
	Overall             *float64 `json:"overall"`
	InsertName          string   `json:"insertName"`
	SetNumber           string   `json:"setNumber"`
	SetName             string   `json:"setName"`
	ParallelName        string   `json:"parallelName"`
	ParallelNumber      *int     `json:"parallelNumber"`
	ParallelTotal       *int     `json:"parallelTotal"`
	FrontImageURL       string   `json:"frontImageUrl"`
	BackImageURL        string   `json:"backImageUrl"`
	GradingCompany      string   `json:"gradingCompany"`
	EstimatedValueCents *int64   `json:"estimatedValueCents"`
}

type HitFeedPage struct {
	Items []HitFeedItem `json:"items"`
}

// HitFeedItem is one publicly posted verified sale. CreatedAt stays a raw
// string here; the verifier parses it and treats garbage as a non-match.
type HitFeedItem struct {
	ID                  string   `json:"id"`
	CardID              string   `json:"cardId"`
	CreatedAt           string   `json:"createdAt"`
	PlayerName          string   `json:"playerName"`
	Overall             *float64 `json:"overall"`
	SetName             string   `json:"setName"`
	SetNumber           string   `json:"setNumber"`
	ParallelName        string   `json:"parallelName"`
	ParallelNumber      *int     `json:"parallelNumber"`
	ParallelTotal       *int     `json:"parallelTotal"`
	FrontImageURL       string   `json:"frontImageUrl"`
	BackImageURL        string   `json:"backImageUrl"`
	GradingCompany      string   `json:"gradingCompany"`
	SeriesName          string   `json:"seriesName"`
	CategoryName        string   `json:"categoryName"`
	EstimatedValueCents *int64   `json:"estimatedValueCents"`
}
