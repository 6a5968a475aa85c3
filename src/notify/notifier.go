package notify

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/status"
)

// Event kinds emitted by the engine.
const (
	EventOpened               = "opened"
	EventClosed               = "closed"
	EventConnectivityLost     = "connectivity_lost"
	EventConnectivityRestored = "connectivity_restored"
)

const sendTimeout = 10 * time.Second

// Sender delivers a message to an outbound channel.
type Sender interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Notifier converts engine events into frontend notifications and outbound
// messages. Outbound delivery is best effort: failures are logged, never
// retried synchronously, and never block the caller.
type Notifier struct {
	cache   *status.Cache
	senders []Sender
	log     *logger.Entry
}

func NewNotifier(cache *status.Cache, senders ...Sender) *Notifier {
	return &Notifier{
		cache:   cache,
		senders: senders,
		log:     logger.WithField("component", "notifier"),
	}
}

// Notify queues the message for the status API and dispatches it outbound.
// message goes to the bounded frontend queue; outbound carries the richer
// Markdown body for chat channels.
func (n *Notifier) Notify(event, message, outbound string) {
	kind := "info"
	switch event {
	case EventOpened:
		kind = "success"
	case EventConnectivityLost:
		kind = "warning"
	case EventConnectivityRestored:
		kind = "success"
	}

	n.cache.PushNotification(kind, message)
	n.cache.Log(message)

	if outbound == "" {
		outbound = message
	}

	for _, s := range n.senders {
		go n.dispatch(s, event, outbound)
	}
}

func (n *Notifier) dispatch(s Sender, event, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := s.Send(ctx, text); err != nil {
		n.log.WithError(err).WithFields(logger.Fields{
			"sender": s.Name(),
			"event":  event,
		}).Warn("outbound notification failed")
	}
}
