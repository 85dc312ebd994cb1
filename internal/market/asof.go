package market

import (
	"time"

	"github.com/illi4/asx-screener/internal/models"
)

// SliceAsOf returns the leading bars dated on or before the as-of day. The
// returned slice shares the backing array of bars.
func SliceAsOf(bars []models.Bar, asOf time.Time) []models.Bar {
	if asOf.IsZero() {
		return bars
	}
	y, m, d := asOf.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, asOf.Location()).AddDate(0, 0, 1)

	n := len(bars)
	for n > 0 && !bars[n-1].Timestamp.Before(end) {
		n--
	}
	return bars[:n]
}

// DropIncompleteLast drops the last bar when it is dated today in loc; its
// values are still moving while the session is open.
func DropIncompleteLast(bars []models.Bar, now time.Time, loc *time.Location) []models.Bar {
	if len(bars) == 0 {
		return bars
	}
	if loc == nil {
		loc = time.UTC
	}
	if sameDay(bars[len(bars)-1].Timestamp.In(loc), now.In(loc)) {
		return bars[:len(bars)-1]
	}
	return bars
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
