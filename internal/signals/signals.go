// Package signals fetches optional macro and search-interest indicators.
// Nothing here ever fails the caller: a reading that cannot be obtained is
// returned as nil and logged.
package signals

import (
	"time"
)

type ExchangeRate struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
	AsOf  string  `json:"as_of"`
}

type Inflation struct {
	YoYPercent float64 `json:"yoy_percent"`
	AsOf       string  `json:"as_of"`
}

// Snapshot holds every reading from one Fetch. A nil field (or nil Trends)
// means that signal was unavailable.
type Snapshot struct {
	Exchange  *ExchangeRate      `json:"exchange"`
	Inflation *Inflation         `json:"inflation"`
	Trends    map[string]float64 `json:"trends"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// TrendMean is the arithmetic mean over all keyword scores.
func (s *Snapshot) TrendMean() (float64, bool) {
	if s == nil || len(s.Trends) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range s.Trends {
		sum += v
	}
	return sum / float64(len(s.Trends)), true
}

// Request selects what Fetch asks for.
type Request struct {
	Base           string   `json:"base"`
	Quote          string   `json:"quote"`
	Keywords       []string `json:"keywords"`
	LookbackMonths int      `json:"lookback_months"`
}
