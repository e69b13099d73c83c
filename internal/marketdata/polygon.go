package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/models"
)

const dateLayout = "2006-01-02"

// PolygonClient implements BarSource against the Polygon.io REST API
type PolygonClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// aggregateBar is the provider's wire format for one OHLCV aggregate
type aggregateBar struct {
	Ticker    string  `json:"T"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

type aggregatesResponse struct {
	Status       string         `json:"status"`
	ResultsCount int            `json:"resultsCount"`
	Results      []aggregateBar `json:"results"`
	Error        string         `json:"error"`
}

type tickerDetailsResponse struct {
	Status  string `json:"status"`
	Results struct {
		MarketCap                 *float64 `json:"market_cap"`
		WeightedSharesOutstanding *float64 `json:"weighted_shares_outstanding"`
	} `json:"results"`
}

// NewPolygonClient creates a new Polygon REST client
func NewPolygonClient(cfg *config.MarketDataConfig, httpClient *RateLimitedHTTPClient, logger *logrus.Logger) *PolygonClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &PolygonClient{
		httpClient: httpClient,
		baseURL:    cfg.APIURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// GroupedDaily fetches the whole-market daily grouped aggregates for a date
func (c *PolygonClient) GroupedDaily(ctx context.Context, date time.Time) ([]models.DailyBar, error) {
	day := date.Format(dateLayout)
	endpoint := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s?adjusted=true&apiKey=%s",
		c.baseURL, day, url.QueryEscape(c.apiKey))

	resp, err := c.fetchAggregates(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("grouped daily fetch for %s: %w", day, err)
	}
	if len(resp.Results) == 0 {
		return nil, &NotFoundError{Date: day}
	}

	bars := make([]models.DailyBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, models.DailyBar{
			Ticker: r.Ticker,
			Date:   date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

// Aggregates fetches the 1-minute bars for one ticker on one date
func (c *PolygonClient) Aggregates(ctx context.Context, ticker string, date time.Time) ([]models.IntradayBar, error) {
	day := date.Format(dateLayout)
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/minute/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		c.baseURL, url.PathEscape(ticker), day, day, url.QueryEscape(c.apiKey))

	resp, err := c.fetchAggregates(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("intraday fetch for %s on %s: %w", ticker, day, err)
	}
	if len(resp.Results) == 0 {
		return nil, &NotFoundError{Ticker: ticker, Date: day}
	}

	bars := make([]models.IntradayBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, models.IntradayBar{
			Ticker:    ticker,
			Date:      date,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars, nil
}

// TickerDetails fetches reference details for a ticker as of a date
func (c *PolygonClient) TickerDetails(ctx context.Context, ticker string, date time.Time) (models.ReferenceDetails, error) {
	day := date.Format(dateLayout)
	endpoint := fmt.Sprintf("%s/v3/reference/tickers/%s?date=%s&apiKey=%s",
		c.baseURL, url.PathEscape(ticker), day, url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return models.ReferenceDetails{}, fmt.Errorf("ticker details fetch for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ReferenceDetails{}, &NotFoundError{Ticker: ticker, Date: day}
	}
	if resp.StatusCode != http.StatusOK {
		return models.ReferenceDetails{}, NewAPIError(resp.StatusCode, "ticker details request failed", nil)
	}

	var details tickerDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return models.ReferenceDetails{}, fmt.Errorf("failed to decode ticker details: %w", err)
	}

	ref := models.ReferenceDetails{}
	if details.Results.WeightedSharesOutstanding != nil {
		v := int64(*details.Results.WeightedSharesOutstanding)
		ref.Float = &v
	}
	if details.Results.MarketCap != nil {
		v := int64(*details.Results.MarketCap)
		ref.MarketCap = &v
	}
	return ref, nil
}

func (c *PolygonClient) fetchAggregates(ctx context.Context, endpoint string) (*aggregatesResponse, error) {
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp.StatusCode, "aggregates request failed", nil)
	}

	var parsed aggregatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode aggregates response: %w", err)
	}
	if parsed.Error != "" {
		return nil, NewAPIError(resp.StatusCode, parsed.Error, nil)
	}
	return &parsed, nil
}
