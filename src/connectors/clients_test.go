package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateClientGetUSDBRL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/last/USD-BRL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"USDBRL": {"bid": "5.4321"}}`))
	}))
	defer server.Close()

	t.Setenv("RATE_API_BASE_URL", server.URL)
	client := NewRateClient()

	rate, err := client.GetUSDBRL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.4321, rate, 1e-9)
}

func TestRateClientMissingQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	t.Setenv("RATE_API_BASE_URL", server.URL)
	client := NewRateClient()

	_, err := client.GetUSDBRL(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USDBRL missing")
}

func TestSentimentClientGetFearGreed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fng/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"value": "25", "value_classification": "Extreme Fear"}]}`))
	}))
	defer server.Close()

	t.Setenv("SENTIMENT_API_BASE_URL", server.URL)
	client := NewSentimentClient()

	value, label, err := client.GetFearGreed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25", value)
	assert.Equal(t, "Extreme Fear", label)
}

func TestSentimentClientEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	t.Setenv("SENTIMENT_API_BASE_URL", server.URL)
	client := NewSentimentClient()

	_, _, err := client.GetFearGreed(context.Background())
	require.Error(t, err)
}

func TestTelegramClientRequiresToken(t *testing.T) {
	_, err := NewTelegramClient("")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTelegramClientSendMessage(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottesttoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client, err := NewTelegramClient("testtoken")
	require.NoError(t, err)
	client.http.SetBaseURL(server.URL)

	require.NoError(t, client.SendMessage(context.Background(), "12345", "*hello*"))
	assert.Equal(t, "12345", received["chat_id"])
	assert.Equal(t, "*hello*", received["text"])
	assert.Equal(t, "Markdown", received["parse_mode"])
}

func TestTelegramClientSendMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	client, err := NewTelegramClient("testtoken")
	require.NoError(t, err)
	client.http.SetBaseURL(server.URL)

	err = client.SendMessage(context.Background(), "12345", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramClientGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottesttoken/getUpdates", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 42, "message": {"message_id": 1, "text": "how are we doing?", "chat": {"id": 777}}}
		]}`))
	}))
	defer server.Close()

	client, err := NewTelegramClient("testtoken")
	require.NoError(t, err)
	client.poll.SetBaseURL(server.URL)

	updates, err := client.GetUpdates(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(42), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "how are we doing?", updates[0].Message.Text)
	assert.Equal(t, int64(777), updates[0].Message.Chat.ID)
}

func TestIsRetryableTelegramResp(t *testing.T) {
	assert.True(t, isRetryableTelegramResp(nil, assert.AnError))
	assert.False(t, isRetryableTelegramResp(nil, nil))
}

func TestParsePair(t *testing.T) {
	pair, err := parsePair("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", pair.ToSymbol(""))

	_, err = parsePair("BTCUSDT")
	require.Error(t, err)
	_, err = parsePair("/USDT")
	require.Error(t, err)

	assert.Equal(t, "BTC", BaseAsset("BTC/USDT"))
	assert.Equal(t, "ETH", BaseAsset("eth/usdt"))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "0.110000", formatQuantity(0.11))
	assert.Equal(t, "11.000000", formatQuantity(11))
}
