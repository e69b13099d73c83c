package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/gap-scanner/internal/config"
)

func newTestClient(t *testing.T, serverURL string) *PolygonClient {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.RateLimit = 1000
	httpCfg.MaxRetries = 2
	httpCfg.RetryWaitMin = time.Millisecond
	httpCfg.RetryWaitMax = 5 * time.Millisecond
	client := NewRateLimitedHTTPClient(httpCfg, log)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.MarketDataConfig{APIURL: serverURL, APIKey: "test-key"}
	return NewPolygonClient(cfg, client, log)
}

var testDate = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGroupedDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/grouped/locale/us/market/stocks/2024-03-14", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		fmt.Fprint(w, `{"status":"OK","resultsCount":2,"results":[
			{"T":"AAPL","o":170.1,"h":172.5,"l":169.8,"c":171.2,"v":1000000,"t":1710392400000},
			{"T":"GAPU","o":10.0,"h":12.0,"l":9.0,"c":9.5,"v":250000,"t":1710392400000}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bars, err := client.GroupedDaily(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.InDelta(t, 170.1, bars[0].Open, 1e-9)
	assert.True(t, bars[0].Date.Equal(testDate))
}

func TestGroupedDailyEmptyIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","resultsCount":0,"results":[]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GroupedDaily(context.Background(), testDate)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAggregates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/GAPU/range/1/minute/2024-03-14/2024-03-14", r.URL.Path)

		fmt.Fprint(w, `{"status":"OK","resultsCount":1,"results":[
			{"o":10.0,"h":10.5,"l":9.8,"c":10.2,"v":5000,"t":1710426600000}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bars, err := client.Aggregates(context.Background(), "GAPU", testDate)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.Equal(t, "GAPU", bars[0].Ticker)
	assert.Equal(t, time.UnixMilli(1710426600000).UTC(), bars[0].Timestamp)
	assert.InDelta(t, 10.2, bars[0].Close, 1e-9)
	assert.True(t, bars[0].Valid())
}

func TestAggregatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Aggregates(context.Background(), "GAPU", testDate)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.False(t, IsNotFound(err))
}

func TestTickerDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/reference/tickers/GAPU", r.URL.Path)
		assert.Equal(t, "2024-03-14", r.URL.Query().Get("date"))

		fmt.Fprint(w, `{"status":"OK","results":{"market_cap":25000000.0,"weighted_shares_outstanding":1500000.0}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	details, err := client.TickerDetails(context.Background(), "GAPU", testDate)
	require.NoError(t, err)

	require.NotNil(t, details.Float)
	assert.Equal(t, int64(1_500_000), *details.Float)
	require.NotNil(t, details.MarketCap)
	assert.Equal(t, int64(25_000_000), *details.MarketCap)
}

func TestTickerDetailsPartialFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":{"market_cap":25000000.0}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	details, err := client.TickerDetails(context.Background(), "GAPU", testDate)
	require.NoError(t, err)

	assert.Nil(t, details.Float)
	require.NotNil(t, details.MarketCap)
}

func TestTickerDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.TickerDetails(context.Background(), "GAPU", testDate)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"OK","resultsCount":1,"results":[
			{"T":"GAPU","o":10.0,"h":12.0,"l":9.0,"c":9.5,"v":250000,"t":1710392400000}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bars, err := client.GroupedDaily(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
