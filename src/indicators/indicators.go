package indicators

import "math"

// SMA produces the simple moving average for the supplied prices.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) == 0 {
		return []float64{}
	}
	result := make([]float64, len(prices))
	for i := range result {
		result[i] = math.NaN()
	}
	if len(prices) < period {
		return result
	}

	sum := 0.0
	for i := 0; i < len(prices); i++ {
		sum += prices[i]
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}

// RSI computes the Relative Strength Index across the supplied prices using
// Wilder smoothing.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) == 0 {
		return []float64{}
	}
	rsi := make([]float64, len(prices))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if len(prices) <= period {
		return rsi
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	rsi[period] = computeRSI(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		rsi[i] = computeRSI(avgGain, avgLoss)
	}
	return rsi
}

// Bollinger returns the lower, middle and upper band series for the supplied
// prices: SMA(period) ± stdDev population standard deviations.
func Bollinger(prices []float64, period int, stdDev float64) (lower, middle, upper []float64) {
	middle = SMA(prices, period)

	lower = make([]float64, len(prices))
	upper = make([]float64, len(prices))
	for i := range prices {
		lower[i] = math.NaN()
		upper[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return lower, middle, upper
	}

	for i := period - 1; i < len(prices); i++ {
		mean := middle[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		lower[i] = mean - stdDev*sigma
		upper[i] = mean + stdDev*sigma
	}
	return lower, middle, upper
}

// Last returns the final value of a series, or NaN for an empty one.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func computeRSI(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	case avgGain == 0:
		return 0.0
	default:
		rs := avgGain / avgLoss
		return 100.0 - 100.0/(1.0+rs)
	}
}
