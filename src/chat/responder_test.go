package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"spottrader/src/connectors"
	"spottrader/src/model"
	"spottrader/src/repository"
	"spottrader/src/status"
)

type fakeCompleter struct {
	response string
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

type telegramStub struct {
	mu      sync.Mutex
	sent    []map[string]string
	updates string
}

func (s *telegramStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/bottoken/sendMessage":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.mu.Lock()
			s.sent = append(s.sent, body)
			s.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok": true, "result": {}}`))
		case r.URL.Path == "/bottoken/getUpdates":
			s.mu.Lock()
			updates := s.updates
			s.updates = `[]`
			s.mu.Unlock()
			fmt.Fprintf(w, `{"ok": true, "result": %s}`, updates)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok": false, "description": "not found"}`))
		}
	}
}

func (s *telegramStub) messages() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(s.sent))
	copy(out, s.sent)
	return out
}

var chatTestDBCounter atomic.Int64

func newChatHarness(t *testing.T, completer connectors.Completer) (*Responder, *telegramStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:chattest%d?mode=memory&cache=shared", chatTestDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.BotConfig{}, &model.Position{}, &model.Trade{}))

	stub := &telegramStub{updates: `[]`}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	t.Setenv("TELEGRAM_API_BASE_URL", server.URL)
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "0s")

	configRepo := repository.NewBotConfigRepository().WithDB(db)
	ctx := context.Background()
	cfg, err := configRepo.Load(ctx)
	require.NoError(t, err)
	cfg.Pairs = "BTC/USDT"
	cfg.Running = true
	cfg.TelegramToken = "token"
	cfg.TelegramChatID = "777"
	require.NoError(t, configRepo.Save(ctx, cfg))

	cache := status.NewCache(status.DefaultCapacity)
	cache.SetBalance(42.5)
	cache.SetRunning(true)
	cache.Log("engine started")

	responder := NewResponder(
		configRepo,
		repository.NewTradeRepository().WithDB(db),
		repository.NewPositionRepository().WithDB(db),
		cache,
		completer,
		nil,
	)

	return responder, stub
}

func sendAndWait(t *testing.T, responder *Responder, stub *telegramStub, update string) {
	t.Helper()

	stub.mu.Lock()
	stub.updates = update
	stub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = responder.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(stub.messages()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestResponderAnswersOwnerQuestion(t *testing.T) {
	completer := &fakeCompleter{response: "We are up $1.30 today! 🚀"}
	responder, stub := newChatHarness(t, completer)

	sendAndWait(t, responder, stub,
		`[{"update_id": 1, "message": {"message_id": 1, "text": "how are we doing?", "chat": {"id": 777}}}]`)

	messages := stub.messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, "777", messages[0]["chat_id"])
	// The completion output is relayed verbatim.
	assert.Equal(t, "We are up $1.30 today! 🚀", messages[0]["text"])

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "$42.50")
	assert.Contains(t, completer.prompts[0], "BTC/USDT")
	assert.Contains(t, completer.prompts[0], "how are we doing?")
	assert.Contains(t, completer.prompts[0], "Bot Status: ON")
}

func TestResponderRefusesNonOwner(t *testing.T) {
	completer := &fakeCompleter{response: "should never be used"}
	responder, stub := newChatHarness(t, completer)

	sendAndWait(t, responder, stub,
		`[{"update_id": 1, "message": {"message_id": 1, "text": "balance?", "chat": {"id": 666}}}]`)

	messages := stub.messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, "666", messages[0]["chat_id"])
	assert.Equal(t, "⛔ Access denied.", messages[0]["text"])
	assert.Empty(t, completer.prompts)
}

func TestResponderStaticReplyWithoutCompleter(t *testing.T) {
	responder, stub := newChatHarness(t, nil)

	sendAndWait(t, responder, stub,
		`[{"update_id": 1, "message": {"message_id": 1, "text": "hello", "chat": {"id": 777}}}]`)

	messages := stub.messages()
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[0]["text"], "OpenAI")
}

func TestResponderDisabledWithoutToken(t *testing.T) {
	responder, _ := newChatHarness(t, nil)

	ctx := context.Background()
	cfg, err := responder.ConfigRepo.Load(ctx)
	require.NoError(t, err)
	cfg.TelegramToken = ""
	require.NoError(t, responder.ConfigRepo.Save(ctx, cfg))

	// Run returns immediately instead of polling.
	require.NoError(t, responder.Run(ctx))
	assert.Contains(t, responder.Cache.RecentLogs(0)[0], "Chatbot disabled")
}

func TestMatchesSentimentKeyword(t *testing.T) {
	assert.True(t, matchesSentimentKeyword("What is the market sentiment today?"))
	assert.True(t, matchesSentimentKeyword("FEAR and greed index?"))
	assert.False(t, matchesSentimentKeyword("what is my balance?"))
}
