package formulas

import (
	"github.com/markcheno/go-talib"
)

// RollingSMA returns the simple moving average of every full window.
// The result has len(values)-window+1 entries; result[i] averages values[i : i+window].
// Returns nil when there are fewer values than the window.
func RollingSMA(values []float64, window int) []float64 {
	if window < 1 || len(values) < window {
		return nil
	}
	if window == 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	sma := talib.Sma(values, window)
	return sma[window-1:]
}
