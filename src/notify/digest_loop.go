package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/connectors"
	"spottrader/src/status"
)

// DigestLoop periodically summarizes recent engine activity with the
// completion API and forwards the digest through the outbound sender. Missing
// credentials degrade to a no-op; the loop never crashes the process.
type DigestLoop struct {
	Cache     *status.Cache
	Sender    Sender
	Period    time.Duration
	Completer connectors.Completer

	log *logger.Entry
	now func() time.Time
}

func NewDigestLoop(cache *status.Cache, sender Sender, period time.Duration, completer connectors.Completer) *DigestLoop {
	if period <= 0 {
		period = 6 * time.Hour
	}
	return &DigestLoop{
		Cache:     cache,
		Sender:    sender,
		Period:    period,
		Completer: completer,
		log:       logger.WithField("component", "digest"),
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled, emitting one digest per period.
func (d *DigestLoop) Run(ctx context.Context) {
	d.log.Info("AI digest loop started")

	ticker := time.NewTicker(d.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("AI digest loop stopped")
			return
		case <-ticker.C:
			d.Cache.Heartbeat("digest")
			if err := d.emit(ctx); err != nil {
				d.log.WithError(err).Warn("digest emission failed")
			}
		}
	}
}

// EmitOnce produces and delivers a single digest immediately.
func (d *DigestLoop) EmitOnce(ctx context.Context) error {
	return d.emit(ctx)
}

func (d *DigestLoop) emit(ctx context.Context) error {
	if d.Completer == nil {
		return nil
	}

	logs := d.Cache.RecentLogs(status.DefaultCapacity)
	if len(logs) == 0 {
		return nil
	}

	balance := d.Cache.Balance()
	prompt := fmt.Sprintf(
		"Summarize these trading operations in the informal tone of a business partner, for Telegram. "+
			"Use emojis. State the profit or loss and the current balance of $%.2f USDT:\n\n%s",
		balance,
		strings.Join(logs, "\n"),
	)

	text, err := d.Completer.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, connectors.ErrNotConfigured) {
			return nil
		}
		return fmt.Errorf("complete digest: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.Sender.Send(sendCtx, "🧠 *Digital Partner Report*\n\n"+text); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	d.log.Info("AI digest delivered")
	return nil
}
