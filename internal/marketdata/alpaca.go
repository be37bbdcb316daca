// Package marketdata supplies current price/volume metrics for tracked
// tickers.
package marketdata

import (
	"context"
	"errors"
	"os"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"news-radar/internal/interfaces"
	"news-radar/internal/types"
)

// AlpacaFetcher reads latest trades from the Alpaca market data API.
type AlpacaFetcher struct {
	client *marketdata.Client
}

var _ interfaces.MetricsFetcher = (*AlpacaFetcher)(nil)

// NewAlpacaFetcher builds a fetcher from ALPACA_API_KEY / ALPACA_SECRET_KEY.
func NewAlpacaFetcher() (*AlpacaFetcher, error) {
	apiKey := os.Getenv("ALPACA_API_KEY")
	apiSecret := os.Getenv("ALPACA_SECRET_KEY")
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")
	}

	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}, nil
}

func (f *AlpacaFetcher) Fetch(ctx context.Context, ticker string) (types.MarketMetrics, error) {
	if err := ctx.Err(); err != nil {
		return types.MarketMetrics{}, err
	}

	trade, err := f.client.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return types.MarketMetrics{}, err
	}

	return types.MarketMetrics{
		Ticker:    ticker,
		Price:     trade.Price,
		Volume:    float64(trade.Size),
		Timestamp: trade.Timestamp,
	}, nil
}
