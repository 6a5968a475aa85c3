package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	RateAPIBaseURL      string `envconfig:"RATE_API_BASE_URL" default:"https://economia.awesomeapi.com.br"`
	SentimentAPIBaseURL string `envconfig:"SENTIMENT_API_BASE_URL" default:"https://api.alternative.me"`

	TelegramAPIBaseURL  string        `envconfig:"TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	TelegramPollTimeout time.Duration `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"10s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
