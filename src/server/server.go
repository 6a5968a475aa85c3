package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"spottrader/src/handler"
	"spottrader/src/repository"
	"spottrader/src/status"
)

// StartServer runs the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, port string, cache *status.Cache, configRepo *repository.BotConfigRepository, trades *repository.TradeRepository) {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handler.GetStatusHandler(cache, trades))
		r.Get("/status/ws", handler.StatusStreamHandler(cache, trades))
		r.Get("/config", handler.GetConfigHandler(configRepo))
		r.Post("/config", handler.UpdateConfigHandler(configRepo))
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
