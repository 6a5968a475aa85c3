package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/status"
)

type profitSource interface {
	TotalProfit(ctx context.Context) (float64, error)
	DailyProfit(ctx context.Context, now time.Time) (float64, error)
}

// StatusResponse is the cache snapshot plus the ledger aggregates computed at
// read time.
type StatusResponse struct {
	status.Snapshot
	TotalProfit float64 `json:"total_profit"`
	DailyProfit float64 `json:"daily_profit"`
}

// GetStatusHandler returns the shared status snapshot enriched with realized
// profit totals from the trade ledger.
func GetStatusHandler(cache *status.Cache, trades profitSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{Snapshot: cache.GetSnapshot()}

		total, err := trades.TotalProfit(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to compute total profit")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp.TotalProfit = total

		daily, err := trades.DailyProfit(r.Context(), time.Now())
		if err != nil {
			logger.WithError(err).Error("failed to compute daily profit")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp.DailyProfit = daily

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.WithError(err).Error("failed to encode status response")
		}
	}
}
