package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/feature/prices/usecase"
	"github.com/UWorldJK/stocks-etl/internal/platform/externalapi/yahoo/dto"
)

// YahooMarket is the MarketRepository implementation backed by the Yahoo
// Finance chart API.
type YahooMarket struct {
	cfg    Config
	client *http.Client
}

// Compile-time check that YahooMarket implements MarketRepository.
var _ usecase.MarketRepository = (*YahooMarket)(nil)

// NewYahooMarket creates a YahooMarket with the given configuration and
// HTTP client.
func NewYahooMarket(cfg Config, client *http.Client) *YahooMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &YahooMarket{cfg: cfg, client: client}
}

// GetDailyPrices fetches daily OHLCV bars for the trailing lookbackDays.
// Days with a missing close are dropped, matching how the pipeline treats
// half-populated exchange data. Transient failures (HTTP 5xx, 429, network
// errors) are retried with exponential backoff up to cfg.MaxRetries.
func (y *YahooMarket) GetDailyPrices(ctx context.Context, ticker string, lookbackDays int) ([]entity.DailyPrice, error) {
	now := time.Now().UTC()
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(now.AddDate(0, 0, -lookbackDays).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))
	q.Set("includePrePost", "false")
	q.Set("events", "history")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.cfg.BaseURL, url.PathEscape(ticker), q.Encode())

	var body dto.ChartResponse
	op := func() error {
		return y.fetch(ctx, u, &body)
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), y.cfg.MaxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: empty chart result for %s", ticker)
	}

	res := body.Chart.Result[0]
	quote := res.Indicators.Quote[0]

	prices := make([]entity.DailyPrice, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue
		}
		p := entity.DailyPrice{
			Date:   midnightUTC(time.Unix(ts, 0)),
			Ticker: ticker,
			Close:  *c,
		}
		if o := at(quote.Open, i); o != nil {
			p.Open = *o
		}
		if h := at(quote.High, i); h != nil {
			p.High = *h
		}
		if l := at(quote.Low, i); l != nil {
			p.Low = *l
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			p.Volume = *quote.Volume[i]
		}
		prices = append(prices, p)
	}
	return prices, nil
}

// fetch executes one GET and decodes the response. It distinguishes
// retryable transport-level failures from permanent API rejections.
func (y *YahooMarket) fetch(ctx context.Context, u string, out *dto.ChartResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	// Yahoo rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stocks-etl)")

	res, err := y.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	switch {
	case res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("yahoo http %d", res.StatusCode)
	case res.StatusCode >= 400:
		// 4xx other than 429 will not get better on retry. Decode anyway:
		// the chart API reports symbol errors with a JSON body.
		if decErr := json.NewDecoder(res.Body).Decode(out); decErr == nil && out.Chart.Error != nil {
			return backoff.Permanent(fmt.Errorf("yahoo: %s: %s", out.Chart.Error.Code, out.Chart.Error.Description))
		}
		return backoff.Permanent(fmt.Errorf("yahoo http %d", res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode chart response: %w", err))
	}
	return nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
