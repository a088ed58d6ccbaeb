package provider_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/infrastructure/provider"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func httpClient(resBody string, code int, seen *[]*http.Request) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			if seen != nil {
				*seen = append(*seen, r)
			}
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}
}

const sampleOK = `{
  "Realtime Currency Exchange Rate": {
    "1. From_Currency Code": "EUR",
    "3. To_Currency Code": "USD",
    "5. Exchange Rate": "1.08450000",
    "6. Last Refreshed": "2025-06-01 10:00:00",
    "7. Time Zone": "UTC",
    "8. Bid Price": "1.08440000",
    "9. Ask Price": "1.08460000"
  }
}`

func TestRate_OK(t *testing.T) {
	var seen []*http.Request
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(sampleOK, 200, &seen),
	}
	r, err := p.Rate(context.Background(), "EUR/USD", "test-key")
	require.NoError(t, err)
	require.InDelta(t, 1.0845, r.Price, 1e-9)
	require.InDelta(t, 1.0844, r.Bid, 1e-9)
	require.InDelta(t, 1.0846, r.Ask, 1e-9)
	require.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), r.Timestamp)

	require.Len(t, seen, 1)
	q := seen[0].URL.Query()
	require.Equal(t, "CURRENCY_EXCHANGE_RATE", q.Get("function"))
	require.Equal(t, "EUR", q.Get("from_currency"))
	require.Equal(t, "USD", q.Get("to_currency"))
	require.Equal(t, "test-key", q.Get("apikey"))
}

func TestRate_ThrottleNote(t *testing.T) {
	body := `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 25 requests per day."}`
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(body, 200, nil),
	}
	_, err := p.Rate(context.Background(), "EUR/USD", "test-key")
	require.ErrorIs(t, err, application.ErrRateLimited)
}

func TestRate_Status429(t *testing.T) {
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient("", 429, nil),
	}
	_, err := p.Rate(context.Background(), "EUR/USD", "test-key")
	require.ErrorIs(t, err, application.ErrRateLimited)
}

func TestRate_ErrorMessage(t *testing.T) {
	body := `{"Error Message": "Invalid API call."}`
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(body, 200, nil),
	}
	_, err := p.Rate(context.Background(), "EUR/USD", "test-key")
	require.ErrorIs(t, err, application.ErrBadResponse)
}

func TestRate_MalformedRate(t *testing.T) {
	body := `{"Realtime Currency Exchange Rate": {"5. Exchange Rate": "not-a-number"}}`
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(body, 200, nil),
	}
	_, err := p.Rate(context.Background(), "EUR/USD", "test-key")
	require.ErrorIs(t, err, application.ErrBadResponse)
}

func TestRate_MissingBidAskFallsBackToMid(t *testing.T) {
	body := `{"Realtime Currency Exchange Rate": {"5. Exchange Rate": "1.25"}}`
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(body, 200, nil),
	}
	r, err := p.Rate(context.Background(), "GBP/USD", "test-key")
	require.NoError(t, err)
	require.Equal(t, 1.25, r.Bid)
	require.Equal(t, 1.25, r.Ask)
	require.True(t, r.Timestamp.IsZero())
}

func TestRate_InvalidPair(t *testing.T) {
	p := &provider.AlphaVantageProvider{
		BaseURL: "https://www.alphavantage.co",
		Client:  httpClient(sampleOK, 200, nil),
	}
	_, err := p.Rate(context.Background(), "EURUSD", "test-key")
	require.Error(t, err)
}
