package calendar

import (
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// Session boundaries, seconds since midnight exchange time.
const (
	preMarketStart = 9*3600 + 15*60  // 09:15:00
	morningStart   = 9*3600 + 30*60  // 09:30:00
	morningEnd     = 11*3600 + 30*60 // 11:30:00, inclusive
	afternoonStart = 13 * 3600       // 13:00:00
	marketClose    = 15 * 3600       // 15:00:00
)

// Poll intervals recommended per session.
const (
	ActiveInterval    = 3 * time.Second
	NoonBreakInterval = 60 * time.Second
)

// Calendar classifies instants against the exchange trading schedule.
// The zero value is not usable; construct with New or NewInLocation.
type Calendar struct {
	loc *time.Location
}

// New returns a Calendar for the Shanghai exchange (Asia/Shanghai).
func New() (*Calendar, error) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return nil, err
	}
	return &Calendar{loc: loc}, nil
}

// NewInLocation returns a Calendar evaluating instants in loc.
func NewInLocation(loc *time.Location) *Calendar {
	return &Calendar{loc: loc}
}

// Classify returns the trading session active at now. It is pure: the
// result depends only on now and the calendar's location.
func (c *Calendar) Classify(now time.Time) model.MarketStatus {
	local := now.In(c.loc)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return model.MarketStatus{
			Session:  model.SessionWeekend,
			NextOpen: c.nextWeekdayOpen(local),
			Message:  "weekend, market closed",
		}
	}

	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()

	switch {
	case sec < preMarketStart:
		return model.MarketStatus{
			Session:  model.SessionClosed,
			NextOpen: c.openAt(local, 0),
			Message:  "market not yet open",
		}
	case sec < morningStart:
		return model.MarketStatus{
			Session: model.SessionPreMarket,
			IsOpen:  true,
			Message: "pre-market call auction",
		}
	case sec <= morningEnd:
		return model.MarketStatus{
			Session: model.SessionTrading,
			IsOpen:  true,
			Message: "morning trading session",
		}
	case sec < afternoonStart:
		return model.MarketStatus{
			Session:  model.SessionNoonBreak,
			NextOpen: time.Date(local.Year(), local.Month(), local.Day(), 13, 0, 0, 0, c.loc),
			Message:  "noon break",
		}
	case sec < marketClose:
		return model.MarketStatus{
			Session: model.SessionTrading,
			IsOpen:  true,
			Message: "afternoon trading session",
		}
	default:
		return model.MarketStatus{
			Session:  model.SessionAfterHours,
			NextOpen: c.nextWeekdayOpen(local),
			Message:  "after hours, market closed",
		}
	}
}

// RecommendedPollInterval maps a session to a REST poll cadence. Zero
// means polling should pause entirely.
func RecommendedPollInterval(status model.MarketStatus) time.Duration {
	switch status.Session {
	case model.SessionTrading, model.SessionPreMarket:
		return ActiveInterval
	case model.SessionNoonBreak:
		return NoonBreakInterval
	default:
		return 0
	}
}

// openAt returns 09:30 local on the day days after t.
func (c *Calendar) openAt(t time.Time, days int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+days, 9, 30, 0, 0, c.loc)
}

// nextWeekdayOpen returns 09:30 on the next weekday strictly after t's
// day (Friday and Saturday roll to Monday, Sunday to Monday).
func (c *Calendar) nextWeekdayOpen(t time.Time) time.Time {
	days := 1
	switch t.Weekday() {
	case time.Friday:
		days = 3
	case time.Saturday:
		days = 2
	}
	return c.openAt(t, days)
}
