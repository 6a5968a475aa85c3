package connectors

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	logger "github.com/sirupsen/logrus"
)

const (
	// Spot testnet endpoint; the live endpoint comes from the goex binance package.
	testnetAPIBaseURL = "https://testnet.binance.vision"

	exchangeHTTPTimeout = 15 * time.Second
)

// Fill is the result of an executed market order.
type Fill struct {
	OrderID  string
	Price    float64
	Quantity float64
}

// Balances maps asset symbol (e.g. "USDT", "BTC") to total held amount.
type Balances map[string]float64

// SpotExchange is the exchange surface the engine consumes. Implementations
// must bound every call with a timeout.
type SpotExchange interface {
	GetBalances() (Balances, error)
	GetTicker(pair string) (float64, error)
	GetCloses(pair string, limit int) ([]float64, error)
	MarketBuy(pair string, qty float64) (*Fill, error)
	MarketSell(pair string, qty float64) (*Fill, error)
}

// BinanceSpot implements SpotExchange over the goex Binance client.
type BinanceSpot struct {
	api goex.API
}

// NewBinanceSpot builds a Binance spot client. Unless live is set the client
// talks to the spot testnet, so a misconfigured deployment cannot spend funds.
func NewBinanceSpot(apiKey, apiSecret string, live bool) (*BinanceSpot, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}

	endpoint := binance.GLOBAL_API_BASE_URL
	if !live {
		endpoint = testnetAPIBaseURL
	}

	apiConfig := &goex.APIConfig{
		HttpClient:   &http.Client{Timeout: exchangeHTTPTimeout},
		Endpoint:     endpoint,
		ApiKey:       apiKey,
		ApiSecretKey: apiSecret,
	}

	logger.WithFields(map[string]interface{}{
		"connector": "BinanceSpot",
		"endpoint":  endpoint,
		"live":      live,
	}).Info("Binance spot client created")

	return &BinanceSpot{api: binance.NewWithConfig(apiConfig)}, nil
}

// GetBalances returns total amounts per asset from the spot account.
func (b *BinanceSpot) GetBalances() (Balances, error) {
	account, err := b.api.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("binance get account: %w", err)
	}

	balances := make(Balances, len(account.SubAccounts))
	for _, sub := range account.SubAccounts {
		total := sub.Amount + sub.ForzenAmount
		if total > 0 {
			balances[strings.ToUpper(sub.Currency.Symbol)] = total
		}
	}
	return balances, nil
}

// GetTicker returns the last traded price for a pair like "BTC/USDT".
func (b *BinanceSpot) GetTicker(pair string) (float64, error) {
	cp, err := parsePair(pair)
	if err != nil {
		return 0, err
	}

	ticker, err := b.api.GetTicker(cp)
	if err != nil {
		return 0, fmt.Errorf("binance get ticker %s: %w", pair, err)
	}
	return ticker.Last, nil
}

// GetCloses returns the closing prices of the most recent 1m candles, oldest
// first, for indicator computation.
func (b *BinanceSpot) GetCloses(pair string, limit int) ([]float64, error) {
	cp, err := parsePair(pair)
	if err != nil {
		return nil, err
	}

	klines, err := b.api.GetKlineRecords(cp, goex.KLINE_PERIOD_1MIN, limit)
	if err != nil {
		return nil, fmt.Errorf("binance get klines %s: %w", pair, err)
	}

	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		closes = append(closes, k.Close)
	}
	return closes, nil
}

// MarketBuy places a market buy for qty of the base asset.
func (b *BinanceSpot) MarketBuy(pair string, qty float64) (*Fill, error) {
	return b.marketOrder(pair, qty, true)
}

// MarketSell places a market sell for qty of the base asset.
func (b *BinanceSpot) MarketSell(pair string, qty float64) (*Fill, error) {
	return b.marketOrder(pair, qty, false)
}

func (b *BinanceSpot) marketOrder(pair string, qty float64, buy bool) (*Fill, error) {
	cp, err := parsePair(pair)
	if err != nil {
		return nil, err
	}

	amount := formatQuantity(qty)

	var order *goex.Order
	if buy {
		order, err = b.api.MarketBuy(amount, "", cp)
	} else {
		order, err = b.api.MarketSell(amount, "", cp)
	}
	if err != nil {
		side := "sell"
		if buy {
			side = "buy"
		}
		return nil, fmt.Errorf("binance market %s %s: %w", side, pair, err)
	}

	fill := &Fill{
		OrderID:  order.OrderID2,
		Price:    order.AvgPrice,
		Quantity: order.DealAmount,
	}
	if fill.Quantity == 0 {
		fill.Quantity = qty
	}

	logger.WithFields(map[string]interface{}{
		"connector": "BinanceSpot",
		"pair":      pair,
		"buy":       buy,
		"qty":       fill.Quantity,
		"order_id":  fill.OrderID,
	}).Info("Market order executed")

	return fill, nil
}

// parsePair turns "BTC/USDT" into a goex currency pair.
func parsePair(pair string) (goex.CurrencyPair, error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return goex.UNKNOWN_PAIR, fmt.Errorf("invalid pair %q, expected BASE/QUOTE", pair)
	}
	return goex.NewCurrencyPair(
		goex.Currency{Symbol: strings.ToUpper(parts[0])},
		goex.Currency{Symbol: strings.ToUpper(parts[1])},
	), nil
}

// BaseAsset returns the base symbol of a pair, e.g. "BTC" for "BTC/USDT".
func BaseAsset(pair string) string {
	return strings.ToUpper(strings.SplitN(pair, "/", 2)[0])
}

func formatQuantity(qty float64) string {
	return strconv.FormatFloat(qty, 'f', 6, 64)
}
