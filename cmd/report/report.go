package report

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"spottrader/src/app"
)

// Report performs one AI digest emission and exits. Useful from cron when the
// long-running digest loop is not wanted.
type Report struct{}

func (r *Report) Start() error {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	application, err := app.New(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start application")
		return err
	}

	// The cache starts empty in a fresh process, so seed it with the latest
	// ledger entries before summarizing.
	trades, err := application.Trades.FindLatest(ctx, 20)
	if err != nil {
		return fmt.Errorf("load recent trades: %w", err)
	}
	if len(trades) == 0 {
		logrus.Info("no trades recorded, nothing to report")
		return nil
	}
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		application.Cache.Log(fmt.Sprintf(
			"SELL %s qty %.6f P&L $%.2f (%.2f%%) [%s]",
			t.Symbol, t.Quantity, t.RealizedPnl, t.PnlPct, t.ExitReason,
		))
	}

	if err := application.Digest.EmitOnce(ctx); err != nil {
		return fmt.Errorf("emit digest: %w", err)
	}

	logrus.Info("report delivered")
	return nil
}
