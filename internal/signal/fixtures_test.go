package signal

import (
	"math"
	"time"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/internal/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// bar builds a candle opened at the previous close with a 5 cent wick on
// both sides of the body.
func bar(i int, open, close float64) models.Bar {
	return models.Bar{
		Timestamp: day0.AddDate(0, 0, i),
		Open:      open,
		High:      math.Max(open, close) + 0.05,
		Low:       math.Min(open, close) - 0.05,
		Close:     close,
		Volume:    1000,
	}
}

// trendBars is a straight line of closes from start moving step per bar
func trendBars(n int, start, step float64) []models.Bar {
	bars := make([]models.Bar, n)
	prev := start - step
	for i := range bars {
		c := start + step*float64(i)
		bars[i] = bar(i, prev, c)
		prev = c
	}
	return bars
}

// appendMoves extends bars with one candle per close-to-close delta
func appendMoves(bars []models.Bar, deltas ...float64) []models.Bar {
	prev := bars[len(bars)-1].Close
	for _, d := range deltas {
		c := prev + d
		bars = append(bars, bar(len(bars), prev, c))
		prev = c
	}
	return bars
}

// zigzagBars climbs 18 cents on odd bars and gives back 12 cents on even
// bars, so the last bar of an even-length series is an up day at a new high.
func zigzagBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	prev := 10.0 - 0.05
	for i := range bars {
		c := 10.0
		switch {
		case i == 0:
		case i%2 == 1:
			c = prev + 0.18
		default:
			c = prev - 0.12
		}
		bars[i] = bar(i, prev, c)
		prev = c
	}
	return bars
}

// weeklyBars rises 0.7% a week with a 5% range on each side of the close
func weeklyBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	prev := 10.0 * 0.99
	for i := range bars {
		c := 10.0 * math.Pow(1.007, float64(i))
		bars[i] = models.Bar{
			Timestamp: day0.AddDate(0, 0, 7*i),
			Open:      prev,
			High:      c * 1.05,
			Low:       c * 0.95,
			Close:     c,
			Volume:    5000,
			Trend:     1,
		}
		prev = c
	}
	return bars
}

// breakoutSnapshot satisfies every BullishMRI condition: a zigzag uptrend
// whose last day is a green, higher close on double volume, labelled green on
// both cadences, with weekly closes about 2% above the reference week.
func breakoutSnapshot() Snapshot {
	daily := zigzagBars(260)
	daily[len(daily)-1].Volume = 2000
	daily[len(daily)-1].TDDirection = models.DirectionGreen

	weekly := weeklyBars(40)
	weekly[len(weekly)-1].TDDirection = models.DirectionGreen

	return Snapshot{Code: "BRK", Daily: daily, Weekly: weekly}
}

// climbSnapshot ends with 30 strictly rising closes
func climbSnapshot() Snapshot {
	daily := zigzagBars(230)
	daily = appendMoves(daily, repeat(0.1, 30)...)
	daily[len(daily)-1].Volume = 2000
	daily[len(daily)-1].TDDirection = models.DirectionGreen

	weekly := weeklyBars(40)
	weekly[len(weekly)-1].TDDirection = models.DirectionGreen

	return Snapshot{Code: "CLM", Daily: daily, Weekly: weekly}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func filters() config.Filters {
	return config.DefaultFilters()
}

func conditionsOf(r Result) map[string]bool {
	out := make(map[string]bool, len(r.Conditions))
	for _, c := range r.Conditions {
		out[c.Name] = c.Passed
	}
	return out
}
