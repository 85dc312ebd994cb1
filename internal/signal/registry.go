package signal

import (
	"fmt"
	"sort"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/internal/models"
)

// Evaluator evaluates one strategy over a snapshot
type Evaluator func(s Snapshot, f config.Filters) Result

// Strategy is a named, selectable evaluator
type Strategy struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Conditions  int       `json:"conditions"`
	Evaluate    Evaluator `json:"-"`
}

var strategies = map[string]Strategy{
	StrategyMRI: {
		Name:        StrategyMRI,
		Description: "Bullish MRI: trend, volume, extension and momentum checks",
		Conditions:  12,
		Evaluate:    BullishMRI,
	},
	StrategyBreakout: {
		Name:        StrategyBreakout,
		Description: "Bullish 3-MA breakout on volume",
		Conditions:  12,
		Evaluate:    BullishBreakout,
	},
	StrategyLegacy: {
		Name:        StrategyLegacy,
		Description: "Legacy bullish conditions",
		Conditions:  9,
		Evaluate:    LegacyBullish,
	},
	StrategyANX: {
		Name:        StrategyANX,
		Description: "Bullish EMA3/EMA12 trigger above MA200",
		Conditions:  3,
		Evaluate:    BullishANX,
	},
	StrategyEarningsGapDown: {
		Name:        StrategyEarningsGapDown,
		Description: "Gap down beyond the earnings gap threshold",
		Conditions:  1,
		Evaluate:    EarningsGapDown,
	},
	StrategyRedDayOnVolume: {
		Name:        StrategyRedDayOnVolume,
		Description: "Red day on above-average volume",
		Conditions:  2,
		Evaluate:    RedDayOnVolume,
	},
	StrategyMarketBearish: {
		Name:        StrategyMarketBearish,
		Description: "Market index below MA200 with a falling MA10",
		Conditions:  2,
		Evaluate:    MarketBearish,
	},
}

// Lookup returns the strategy registered under name
func Lookup(name string) (Strategy, error) {
	st, ok := strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, name)
	}
	return st, nil
}

// Strategies returns every registered strategy ordered by name
func Strategies() []Strategy {
	out := make([]Strategy, 0, len(strategies))
	for _, st := range strategies {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
