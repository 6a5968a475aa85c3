package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"spottrader/src/status"
)

const (
	wsPushPeriod   = 2 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StatusStreamHandler pushes a fresh status snapshot to the client every two
// seconds until the connection drops. Profit totals are recomputed per push so
// the dashboard stays consistent with GET /api/status.
func StatusStreamHandler(cache *status.Cache, trades profitSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		log := logger.WithField("remote", r.RemoteAddr)
		log.Info("status stream connected")

		// Drain inbound frames so pings and close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPushPeriod)
		defer ticker.Stop()

		for {
			if err := pushStatus(r.Context(), conn, cache, trades); err != nil {
				log.WithError(err).Debug("status stream closed")
				return
			}

			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}

func pushStatus(ctx context.Context, conn *websocket.Conn, cache *status.Cache, trades profitSource) error {
	resp := StatusResponse{Snapshot: cache.GetSnapshot()}

	total, err := trades.TotalProfit(ctx)
	if err != nil {
		return err
	}
	resp.TotalProfit = total

	daily, err := trades.DailyProfit(ctx, time.Now())
	if err != nil {
		return err
	}
	resp.DailyProfit = daily

	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(resp)
}
