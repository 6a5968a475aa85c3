package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	telegramRetryAttempts   = 3
	telegramRetryBaseDelay  = 500 * time.Millisecond
	telegramRetryMaxBackoff = 4 * time.Second
)

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// TelegramUpdate is one inbound event from getUpdates.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	From struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
}

// TelegramClient talks to the Telegram Bot API. Sends are short-lived calls
// with internal retry; GetUpdates long-polls with a larger timeout budget.
type TelegramClient struct {
	token       string
	http        *resty.Client
	poll        *resty.Client
	pollTimeout time.Duration
}

func isRetryableTelegramResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	return code == 429 || code == 408 || (code >= 500 && code <= 599)
}

// NewTelegramClient builds a client for the given bot token. Returns
// ErrNotConfigured when the token is empty so callers can disable the feature.
func NewTelegramClient(token string) (*TelegramClient, error) {
	if token == "" {
		return nil, ErrNotConfigured
	}

	config := GetConfig()

	httpClient := resty.New().
		SetBaseURL(config.TelegramAPIBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(telegramRetryAttempts - 1).
		SetRetryWaitTime(telegramRetryBaseDelay).
		SetRetryMaxWaitTime(telegramRetryMaxBackoff).
		AddRetryCondition(isRetryableTelegramResp)

	// Long-poll client: no retry, timeout must exceed the poll window.
	pollClient := resty.New().
		SetBaseURL(config.TelegramAPIBaseURL).
		SetTimeout(config.TelegramPollTimeout + 10*time.Second)

	return &TelegramClient{
		token:       token,
		http:        httpClient,
		poll:        pollClient,
		pollTimeout: config.TelegramPollTimeout,
	}, nil
}

// SendMessage posts a Markdown message to a chat.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	var out telegramResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/bot%s/sendMessage", c.token))
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if resp.StatusCode() != 200 || !out.OK {
		return fmt.Errorf("telegram sendMessage: HTTP %d: %s", resp.StatusCode(), out.Description)
	}

	logger.WithFields(map[string]interface{}{
		"connector": "TelegramClient",
		"chat_id":   chatID,
	}).Debug("Telegram message sent")

	return nil
}

// GetUpdates long-polls for inbound messages after the given offset.
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64) ([]TelegramUpdate, error) {
	var out telegramResponse

	resp, err := c.poll.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  fmt.Sprintf("%d", offset),
			"timeout": fmt.Sprintf("%d", int(c.pollTimeout.Seconds())),
		}).
		SetResult(&out).
		Get(fmt.Sprintf("/bot%s/getUpdates", c.token))
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}
	if resp.StatusCode() != 200 || !out.OK {
		return nil, fmt.Errorf("telegram getUpdates: HTTP %d: %s", resp.StatusCode(), out.Description)
	}

	var updates []TelegramUpdate
	if err := json.Unmarshal(out.Result, &updates); err != nil {
		return nil, fmt.Errorf("telegram getUpdates decode: %w", err)
	}
	return updates, nil
}
