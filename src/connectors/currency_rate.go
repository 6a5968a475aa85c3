package connectors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// RateClient fetches the USD to BRL conversion rate used for the wallet value
// shown on the dashboard. The engine caches the result per 5-minute window, so
// this client stays stateless.
type RateClient struct {
	http *resty.Client
}

func NewRateClient() *RateClient {
	config := GetConfig()

	return &RateClient{
		http: resty.New().
			SetBaseURL(config.RateAPIBaseURL).
			SetTimeout(10 * time.Second),
	}
}

type rateQuote struct {
	Bid string `json:"bid"`
}

// GetUSDBRL returns the current USD/BRL bid.
func (c *RateClient) GetUSDBRL(ctx context.Context) (float64, error) {
	var out map[string]rateQuote

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/json/last/USD-BRL")
	if err != nil {
		return 0, fmt.Errorf("rate lookup: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("rate lookup: HTTP %d", resp.StatusCode())
	}

	quote, ok := out["USDBRL"]
	if !ok {
		return 0, fmt.Errorf("rate lookup: USDBRL missing from response")
	}

	bid, err := strconv.ParseFloat(quote.Bid, 64)
	if err != nil {
		return 0, fmt.Errorf("rate lookup: parse bid %q: %w", quote.Bid, err)
	}
	return bid, nil
}
