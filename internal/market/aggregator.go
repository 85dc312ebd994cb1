package market

import (
	"time"

	"github.com/illi4/asx-screener/internal/models"
)

// periodKey groups bars into a coarser period
type periodKey func(t time.Time) int

func isoWeek(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

func calendarMonth(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// ToWeekly aggregates daily bars into ISO weeks of the exchange calendar in
// loc (UTC when nil). A week opens at its first daily open, closes at its
// last daily close, spans the extreme high and low and sums volume. The
// weekly timestamp is that of the first day.
func ToWeekly(daily []models.Bar, loc *time.Location) []models.Bar {
	return aggregate(daily, isoWeek, loc)
}

// ToMonthly aggregates daily bars into calendar months in loc
func ToMonthly(daily []models.Bar, loc *time.Location) []models.Bar {
	return aggregate(daily, calendarMonth, loc)
}

// aggregate buckets bars by key on their local date in loc. Stored
// timestamps usually come back in UTC, where an exchange-local midnight
// falls on the previous calendar day.
func aggregate(bars []models.Bar, key periodKey, loc *time.Location) []models.Bar {
	if len(bars) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	var out []models.Bar
	current := period(bars[0])
	currentKey := key(bars[0].Timestamp.In(loc))

	for _, b := range bars[1:] {
		k := key(b.Timestamp.In(loc))
		if k != currentKey {
			out = append(out, current)
			current = period(b)
			currentKey = k
			continue
		}

		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}
	return append(out, current)
}

// period starts a new aggregate from its first bar, dropping labels that
// only make sense on the source cadence
func period(b models.Bar) models.Bar {
	return models.Bar{
		Timestamp: b.Timestamp,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}
