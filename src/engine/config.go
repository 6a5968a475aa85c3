package engine

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod        time.Duration `envconfig:"LOOP_PERIOD" default:"10s"`
	RateRefreshPeriod time.Duration `envconfig:"RATE_REFRESH_PERIOD" default:"5m"`
	CandleCount       int           `envconfig:"CANDLE_COUNT" default:"50"`
	RSIPeriod         int           `envconfig:"RSI_PERIOD" default:"14"`
	BollingerPeriod   int           `envconfig:"BOLLINGER_PERIOD" default:"20"`
	BollingerStdDev   float64       `envconfig:"BOLLINGER_STD_DEV" default:"2"`

	// MinFreeBalance is the USDT floor below which entries are skipped; it must
	// exceed the trade notional by enough to survive fees.
	MinFreeBalance float64 `envconfig:"MIN_FREE_BALANCE" default:"12"`
	// MinSellNotional is the exchange's minimum order value; sells under it are
	// reported as dust instead of submitted.
	MinSellNotional float64 `envconfig:"MIN_SELL_NOTIONAL" default:"10"`
	// DivergenceFloor is the held value under which an open position is flagged
	// as divergent from exchange holdings.
	DivergenceFloor float64 `envconfig:"DIVERGENCE_FLOOR" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
