package notify

import (
	"context"
	"errors"
	"sync"

	"spottrader/src/connectors"
)

// TelegramConfigFunc supplies the current bot token and chat id. The operator
// can change both at runtime, so the sender re-reads them on every send.
type TelegramConfigFunc func() (token, chatID string)

// TelegramSender delivers notifications through the Telegram Bot API. A send
// with no configured token is a silent no-op.
type TelegramSender struct {
	configFn TelegramConfigFunc

	mu        sync.Mutex
	client    *connectors.TelegramClient
	lastToken string
}

func NewTelegramSender(configFn TelegramConfigFunc) *TelegramSender {
	return &TelegramSender{configFn: configFn}
}

func (t *TelegramSender) Name() string {
	return "telegram"
}

func (t *TelegramSender) Send(ctx context.Context, text string) error {
	token, chatID := t.configFn()
	if token == "" || chatID == "" {
		return nil
	}

	client, err := t.clientFor(token)
	if err != nil || client == nil {
		return err
	}
	return client.SendMessage(ctx, chatID, text)
}

func (t *TelegramSender) clientFor(token string) (*connectors.TelegramClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil && t.lastToken == token {
		return t.client, nil
	}

	client, err := connectors.NewTelegramClient(token)
	if err != nil {
		if errors.Is(err, connectors.ErrNotConfigured) {
			return nil, nil
		}
		return nil, err
	}

	t.client = client
	t.lastToken = token
	return client, nil
}
