package trader

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"spottrader/src/app"
)

// Trader runs the engine, digest and chat loops without the HTTP API.
type Trader struct{}

func (t *Trader) Start() error {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start application")
		return err
	}

	application.StartLoops(ctx)

	<-ctx.Done()
	logrus.Info("trader stopped")
	return nil
}
