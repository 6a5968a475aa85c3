package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Base64-encoded 32-byte AES key used to encrypt exchange credentials at
	// rest. When unset, credentials are stored as-is.
	ExchangeCRKey string `envconfig:"EXCHANGE_CREDENTIALS_KEY"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
