package scanner

import (
	"time"
)

// MarketSession represents the exchange session at a point in time
type MarketSession string

const (
	SessionPreOpen        MarketSession = "preopen"
	SessionMarket         MarketSession = "market"
	SessionClosingAuction MarketSession = "closing_auction"
	SessionClosed         MarketSession = "closed"
)

// ASX session boundaries in minutes since midnight, exchange local time
const (
	preOpenStart   = 7 * 60
	marketOpen     = 10 * 60
	marketClose    = 16 * 60
	auctionCloseAt = 16*60 + 12
)

// GetMarketSession determines the exchange session at t. loc is the exchange
// time zone; nil falls back to a fixed AEST offset (UTC+10, no daylight saving).
// Market hours:
// - Pre-Open: 7:00 AM - 10:00 AM
// - Market: 10:00 AM - 4:00 PM
// - Closing auction: 4:00 PM - 4:12 PM
func GetMarketSession(t time.Time, loc *time.Location) MarketSession {
	if loc == nil {
		loc = time.FixedZone("AEST", 10*60*60)
	}
	local := t.In(loc)

	weekday := local.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return SessionClosed
	}

	timeOfDay := local.Hour()*60 + local.Minute()

	switch {
	case timeOfDay >= preOpenStart && timeOfDay < marketOpen:
		return SessionPreOpen
	case timeOfDay >= marketOpen && timeOfDay < marketClose:
		return SessionMarket
	case timeOfDay >= marketClose && timeOfDay < auctionCloseAt:
		return SessionClosingAuction
	}
	return SessionClosed
}

// IsMarketOpen returns true if continuous trading is underway
func IsMarketOpen(t time.Time, loc *time.Location) bool {
	return GetMarketSession(t, loc) == SessionMarket
}

// TodayBarFinal reports whether a daily bar dated today holds final values,
// that is trading for the day is over
func TodayBarFinal(t time.Time, loc *time.Location) bool {
	return GetMarketSession(t, loc) == SessionClosed
}
