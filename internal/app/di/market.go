// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/UWorldJK/stocks-etl/internal/config"
	"github.com/UWorldJK/stocks-etl/internal/platform/externalapi/yahoo"
	infrahttp "github.com/UWorldJK/stocks-etl/internal/platform/http"
)

// NewMarket creates a fully configured YahooMarket with HTTP client.
func NewMarket(cfg *config.Config) *yahoo.YahooMarket {
	ycfg := yahoo.Config{
		BaseURL:    cfg.Fetch.MarketBaseURL,
		Timeout:    cfg.Fetch.Timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
	}
	httpClient := infrahttp.NewHTTPClient(ycfg.Timeout)
	return yahoo.NewYahooMarket(ycfg, httpClient)
}
