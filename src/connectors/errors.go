package connectors

import "errors"

var (
	// ErrNotConfigured is returned when a connector is missing the credentials
	// it needs. Callers disable the dependent feature instead of crashing.
	ErrNotConfigured = errors.New("connector credentials not configured")

	// ErrTooFewCandles is returned when the exchange did not provide enough
	// history to compute indicators for a symbol.
	ErrTooFewCandles = errors.New("not enough candles for indicator computation")
)
