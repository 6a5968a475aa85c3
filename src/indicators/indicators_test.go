package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	sma := SMA(prices, 3)
	require.Len(t, sma, len(prices))

	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)
}

func TestSMAShortSeries(t *testing.T) {
	sma := SMA([]float64{1, 2}, 5)
	require.Len(t, sma, 2)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))

	assert.Empty(t, SMA(nil, 3))
	assert.Empty(t, SMA([]float64{1, 2, 3}, 0))
}

func TestRSIBounds(t *testing.T) {
	// Monotonically rising prices: RSI pinned at 100.
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	rsi := RSI(rising, 14)
	require.Len(t, rsi, len(rising))
	assert.True(t, math.IsNaN(rsi[13]))
	assert.InDelta(t, 100.0, Last(rsi), 1e-9)

	// Monotonically falling prices: RSI pinned at 0.
	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	assert.InDelta(t, 0.0, Last(RSI(falling, 14)), 1e-9)

	// Flat prices: no gains, no losses, neutral 50.
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	assert.InDelta(t, 50.0, Last(RSI(flat, 14)), 1e-9)
}

func TestRSIStaysInRange(t *testing.T) {
	prices := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
		46.03, 46.41, 46.22, 45.64, 46.21, 46.25, 45.71, 46.45,
	}

	rsi := RSI(prices, 14)
	for i, v := range rsi {
		if i <= 14 && math.IsNaN(v) {
			continue
		}
		require.False(t, math.IsNaN(v), "index %d", i)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}

	// Mixed gains and losses stay away from the extremes.
	last := Last(rsi)
	assert.Greater(t, last, 20.0)
	assert.Less(t, last, 80.0)
}

func TestRSITooFewPrices(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3}, 14)
	require.Len(t, rsi, 3)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestBollingerBands(t *testing.T) {
	prices := []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}

	lower, middle, upper := Bollinger(prices, 5, 2)
	require.Len(t, lower, len(prices))
	require.Len(t, middle, len(prices))
	require.Len(t, upper, len(prices))

	// Warmup region is NaN on all bands.
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(lower[i]))
		assert.True(t, math.IsNaN(upper[i]))
	}

	// Last window: 12..20, mean 16, population sigma sqrt(8).
	sigma := math.Sqrt(8)
	assert.InDelta(t, 16.0, Last(middle), 1e-9)
	assert.InDelta(t, 16.0-2*sigma, Last(lower), 1e-9)
	assert.InDelta(t, 16.0+2*sigma, Last(upper), 1e-9)

	// Bands bracket the middle everywhere they are defined.
	for i := 4; i < len(prices); i++ {
		assert.Less(t, lower[i], middle[i])
		assert.Greater(t, upper[i], middle[i])
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5, 5}

	lower, middle, upper := Bollinger(flat, 5, 2)
	assert.InDelta(t, 5.0, Last(lower), 1e-9)
	assert.InDelta(t, 5.0, Last(middle), 1e-9)
	assert.InDelta(t, 5.0, Last(upper), 1e-9)
}

func TestLast(t *testing.T) {
	assert.True(t, math.IsNaN(Last(nil)))
	assert.Equal(t, 3.0, Last([]float64{1, 2, 3}))
}
