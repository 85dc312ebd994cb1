package market

import (
	"time"

	"github.com/illi4/asx-screener/internal/models"
)

// Series is the labelled daily and weekly history of a stock as of a date
type Series struct {
	Daily  []models.Bar
	Weekly []models.Bar
}

// Prepare cuts daily history at asOf, labels TD directions on the daily bars
// and builds the weekly bars, on the exchange calendar in loc, with their TD
// and trend labels.
func Prepare(daily []models.Bar, asOf time.Time, loc *time.Location) Series {
	daily = LabelTD(SliceAsOf(daily, asOf))
	weekly := LabelTrend(LabelTD(ToWeekly(daily, loc)))
	return Series{Daily: daily, Weekly: weekly}
}
