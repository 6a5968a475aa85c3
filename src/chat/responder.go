package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/connectors"
	"spottrader/src/repository"
	"spottrader/src/status"
)

const reconnectBackoff = 5 * time.Second

var sentimentKeywords = []string{"sentiment", "fear", "greed", "news", "market mood"}

// Responder is the Telegram chatbot: it answers ad hoc questions from the bot
// owner using the status cache and the ledger as read-only context, relaying
// the completion output verbatim.
type Responder struct {
	ConfigRepo *repository.BotConfigRepository
	Trades     *repository.TradeRepository
	Positions  *repository.PositionRepository
	Cache      *status.Cache
	Completer  connectors.Completer
	Sentiment  *connectors.SentimentClient

	newTelegram func(token string) (*connectors.TelegramClient, error)
	log         *logger.Entry
}

func NewResponder(
	configRepo *repository.BotConfigRepository,
	trades *repository.TradeRepository,
	positions *repository.PositionRepository,
	cache *status.Cache,
	completer connectors.Completer,
	sentiment *connectors.SentimentClient,
) *Responder {
	return &Responder{
		ConfigRepo:  configRepo,
		Trades:      trades,
		Positions:   positions,
		Cache:       cache,
		Completer:   completer,
		Sentiment:   sentiment,
		newTelegram: connectors.NewTelegramClient,
		log:         logger.WithField("component", "chat"),
	}
}

// Run long-polls Telegram until ctx is cancelled. A missing token disables the
// feature with a warning instead of crashing; connectivity failures retry with
// a fixed backoff indefinitely.
func (r *Responder) Run(ctx context.Context) error {
	botCfg, err := r.ConfigRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("chat: load config: %w", err)
	}

	if botCfg.TelegramToken == "" {
		r.log.Warn("Telegram token not configured, chatbot disabled")
		r.Cache.Log("⚠️ Telegram token not configured. Chatbot disabled.")
		return nil
	}

	client, err := r.newTelegram(botCfg.TelegramToken)
	if err != nil {
		if errors.Is(err, connectors.ErrNotConfigured) {
			return nil
		}
		return fmt.Errorf("chat: telegram client: %w", err)
	}

	r.log.Info("Telegram chatbot started")
	r.Cache.Log("🤖 Telegram chatbot started.")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			r.log.Info("chatbot stopped")
			return nil
		default:
		}

		r.Cache.Heartbeat("chat")

		updates, err := client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.WithError(err).Warn("Telegram connection unstable, reconnecting")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reconnectBackoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			r.handleMessage(ctx, client, update.Message)
		}
	}
}

func (r *Responder) handleMessage(ctx context.Context, client *connectors.TelegramClient, msg *connectors.TelegramMessage) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	botCfg, err := r.ConfigRepo.Load(ctx)
	if err != nil {
		r.log.WithError(err).Error("failed to load config for inbound message")
		return
	}

	// Owner gate: anyone else is refused before any context is assembled.
	if chatID != botCfg.TelegramChatID {
		r.reply(ctx, client, chatID, "⛔ Access denied.")
		return
	}

	if r.Completer == nil {
		r.reply(ctx, client, chatID, "⚠️ Configure the OpenAI key so I can answer.")
		return
	}

	prompt, err := r.buildPrompt(ctx, botCfg.PairList(), msg.Text)
	if err != nil {
		r.log.WithError(err).Error("failed to build chat context")
		r.reply(ctx, client, chatID, fmt.Sprintf("😵 Something went wrong processing your message: %v", err))
		return
	}

	answer, err := r.Completer.Complete(ctx, prompt)
	if err != nil {
		r.log.WithError(err).Error("completion failed for inbound message")
		r.reply(ctx, client, chatID, fmt.Sprintf("😵 Something went wrong processing your message: %v", err))
		return
	}

	r.reply(ctx, client, chatID, answer)
}

// buildPrompt assembles the read-only system context for the assistant.
func (r *Responder) buildPrompt(ctx context.Context, pairs []string, question string) (string, error) {
	snapshot := r.Cache.GetSnapshot()

	positions, err := r.Positions.FindAll(ctx)
	if err != nil {
		return "", err
	}
	openJSON, err := json.Marshal(positions)
	if err != nil {
		return "", err
	}

	trades, err := r.Trades.FindLatest(ctx, 5)
	if err != nil {
		return "", err
	}
	tradesJSON, err := json.Marshal(trades)
	if err != nil {
		return "", err
	}

	running := "OFF"
	if snapshot.Running {
		running = "ON"
	}

	var b strings.Builder
	b.WriteString("You are a crypto trading assistant. Answer briefly, directly and in a friendly tone (use emojis).\n\n")
	b.WriteString("CURRENT SYSTEM DATA:\n")
	fmt.Fprintf(&b, "- Current Balance: $%.2f USDT\n", snapshot.Balance)
	fmt.Fprintf(&b, "- Monitored Pairs: %s\n", strings.Join(pairs, ", "))
	fmt.Fprintf(&b, "- Bot Status: %s\n", running)
	fmt.Fprintf(&b, "- Open Positions: %s\n", openJSON)
	fmt.Fprintf(&b, "- Recent Trades: %s\n", tradesJSON)
	fmt.Fprintf(&b, "- Recent Logs: %s\n", strings.Join(r.Cache.RecentLogs(5), " | "))

	if r.Sentiment != nil && matchesSentimentKeyword(question) {
		lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		value, label, serr := r.Sentiment.GetFearGreed(lookupCtx)
		cancel()
		if serr != nil {
			r.log.WithError(serr).Debug("sentiment lookup failed")
		} else {
			fmt.Fprintf(&b, "- Fear & Greed Index: %s (%s)\n", value, label)
		}
	}

	fmt.Fprintf(&b, "\nUSER QUESTION: %s\n", question)
	return b.String(), nil
}

func matchesSentimentKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sentimentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (r *Responder) reply(ctx context.Context, client *connectors.TelegramClient, chatID, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.SendMessage(sendCtx, chatID, text); err != nil {
		r.log.WithError(err).Warn("failed to send chat reply")
	}
}
