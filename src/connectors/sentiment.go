package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SentimentClient fetches the crypto Fear & Greed index, used by the chat
// responder when a question matches the market-sentiment keyword heuristic.
type SentimentClient struct {
	http *resty.Client
}

func NewSentimentClient() *SentimentClient {
	config := GetConfig()

	return &SentimentClient{
		http: resty.New().
			SetBaseURL(config.SentimentAPIBaseURL).
			SetTimeout(10 * time.Second),
	}
}

type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// GetFearGreed returns the current index value (0-100) and its label.
func (c *SentimentClient) GetFearGreed(ctx context.Context) (string, string, error) {
	var out fearGreedResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/fng/")
	if err != nil {
		return "", "", fmt.Errorf("sentiment lookup: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", "", fmt.Errorf("sentiment lookup: HTTP %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return "", "", fmt.Errorf("sentiment lookup: empty response")
	}

	return out.Data[0].Value, out.Data[0].Classification, nil
}
