package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

const (
	alphaQueryPath       = "/query"
	alphaTimestampLayout = "2006-01-02 15:04:05"
)

type AlphaVantageProvider struct {
	BaseURL string
	Client  *http.Client
}

var _ application.RateProvider = (*AlphaVantageProvider)(nil)

type avExchangeResp struct {
	Rate *struct {
		ExchangeRate  string `json:"5. Exchange Rate"`
		LastRefreshed string `json:"6. Last Refreshed"`
		BidPrice      string `json:"8. Bid Price"`
		AskPrice      string `json:"9. Ask Price"`
	} `json:"Realtime Currency Exchange Rate"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

func (p *AlphaVantageProvider) Rate(ctx context.Context, pair domain.Pair, apiKey string) (domain.Rate, error) {
	if p.BaseURL == "" || apiKey == "" {
		return domain.Rate{}, errors.New("alphavantage: missing configuration")
	}

	baseCur, quoteCur, ok := domain.SplitPair(pair)
	if !ok {
		return domain.Rate{}, fmt.Errorf("invalid pair format: %s", pair)
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: invalid base url: %w", err)
	}
	u.Path = alphaQueryPath
	q := u.Query()
	q.Set("function", "CURRENCY_EXCHANGE_RATE")
	q.Set("from_currency", baseCur)
	q.Set("to_currency", quoteCur)
	q.Set("apikey", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: create request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Rate{}, fmt.Errorf("alphavantage: status %d: %w", resp.StatusCode, application.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Rate{}, fmt.Errorf("alphavantage: status %d: %w", resp.StatusCode, application.ErrBadResponse)
	}

	var body avExchangeResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: decode response: %w", errors.Join(err, application.ErrBadResponse))
	}
	// Throttled keys get a 200 with a "Note" payload instead of data.
	if body.Note != "" {
		return domain.Rate{}, fmt.Errorf("alphavantage: %s: %w", body.Note, application.ErrRateLimited)
	}
	if body.ErrorMessage != "" {
		return domain.Rate{}, fmt.Errorf("alphavantage: %s: %w", body.ErrorMessage, application.ErrBadResponse)
	}
	if body.Rate == nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: empty payload: %w", application.ErrBadResponse)
	}

	price, err := strconv.ParseFloat(body.Rate.ExchangeRate, 64)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("alphavantage: parse exchange rate: %w", errors.Join(err, application.ErrBadResponse))
	}
	bid := price
	if v, err := strconv.ParseFloat(body.Rate.BidPrice, 64); err == nil {
		bid = v
	}
	ask := price
	if v, err := strconv.ParseFloat(body.Rate.AskPrice, 64); err == nil {
		ask = v
	}

	var ts time.Time
	if t, err := time.Parse(alphaTimestampLayout, body.Rate.LastRefreshed); err == nil {
		ts = t.UTC()
	}

	return domain.Rate{
		Price:     price,
		Bid:       bid,
		Ask:       ask,
		Timestamp: ts,
	}, nil
}
