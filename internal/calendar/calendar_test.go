package calendar

import (
	"testing"
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// Tests build instants in a fixed location so results do not depend on
// the host zoneinfo database. 2026-01-05 is a Monday, 2026-01-09 a
// Friday, 2026-01-03 a Saturday.
var testLoc = time.UTC

func at(day int, hour, min, sec int) time.Time {
	return time.Date(2026, time.January, day, hour, min, sec, 0, testLoc)
}

func TestClassifyBoundaries(t *testing.T) {
	cal := NewInLocation(testLoc)

	tests := []struct {
		name    string
		now     time.Time
		session model.Session
		isOpen  bool
	}{
		{"before pre-market", at(5, 9, 14, 59), model.SessionClosed, false},
		{"pre-market opens", at(5, 9, 15, 0), model.SessionPreMarket, true},
		{"pre-market last second", at(5, 9, 29, 59), model.SessionPreMarket, true},
		{"trading opens", at(5, 9, 30, 0), model.SessionTrading, true},
		{"morning close inclusive", at(5, 11, 30, 0), model.SessionTrading, true},
		{"noon break starts", at(5, 11, 30, 1), model.SessionNoonBreak, false},
		{"noon break last second", at(5, 12, 59, 59), model.SessionNoonBreak, false},
		{"afternoon opens", at(5, 13, 0, 0), model.SessionTrading, true},
		{"afternoon last second", at(5, 14, 59, 59), model.SessionTrading, true},
		{"market close", at(5, 15, 0, 0), model.SessionAfterHours, false},
		{"late evening", at(5, 23, 0, 0), model.SessionAfterHours, false},
		{"midnight", at(5, 0, 0, 0), model.SessionClosed, false},
		{"saturday", at(3, 10, 0, 0), model.SessionWeekend, false},
		{"sunday", at(4, 10, 0, 0), model.SessionWeekend, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Classify(tt.now)
			if got.Session != tt.session {
				t.Errorf("Session = %q, want %q", got.Session, tt.session)
			}
			if got.IsOpen != tt.isOpen {
				t.Errorf("IsOpen = %v, want %v", got.IsOpen, tt.isOpen)
			}
			if !got.IsOpen && got.NextOpen.IsZero() {
				t.Error("NextOpen is zero for a closed session")
			}
			if got.IsOpen && !got.NextOpen.IsZero() {
				t.Error("NextOpen set while open")
			}
		})
	}
}

func TestNextOpen(t *testing.T) {
	cal := NewInLocation(testLoc)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"early morning points at same day", at(5, 8, 0, 0), at(5, 9, 30, 0)},
		{"noon break points at 13:00", at(5, 12, 0, 0), at(5, 13, 0, 0)},
		{"monday after hours points at tuesday", at(5, 16, 0, 0), at(6, 9, 30, 0)},
		{"friday after hours skips to monday", at(9, 16, 0, 0), at(12, 9, 30, 0)},
		{"saturday points at monday", at(3, 12, 0, 0), at(5, 9, 30, 0)},
		{"sunday points at monday", at(4, 12, 0, 0), at(5, 9, 30, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Classify(tt.now)
			if !got.NextOpen.Equal(tt.want) {
				t.Errorf("NextOpen = %v, want %v", got.NextOpen, tt.want)
			}
		})
	}
}

// TestSessionPartition walks a full weekday minute by minute and checks
// every instant lands in exactly one well-defined session.
func TestSessionPartition(t *testing.T) {
	cal := NewInLocation(testLoc)

	valid := map[model.Session]bool{
		model.SessionClosed:     true,
		model.SessionPreMarket:  true,
		model.SessionTrading:    true,
		model.SessionNoonBreak:  true,
		model.SessionAfterHours: true,
	}

	for min := 0; min < 24*60; min++ {
		now := at(5, min/60, min%60, 0)
		got := cal.Classify(now)
		if !valid[got.Session] {
			t.Fatalf("Classify(%v).Session = %q, not a weekday session", now, got.Session)
		}
		open := got.Session == model.SessionTrading || got.Session == model.SessionPreMarket
		if got.IsOpen != open {
			t.Fatalf("Classify(%v): IsOpen = %v for session %q", now, got.IsOpen, got.Session)
		}
	}
}

func TestRecommendedPollInterval(t *testing.T) {
	tests := []struct {
		session model.Session
		want    time.Duration
	}{
		{model.SessionTrading, 3 * time.Second},
		{model.SessionPreMarket, 3 * time.Second},
		{model.SessionNoonBreak, 60 * time.Second},
		{model.SessionAfterHours, 0},
		{model.SessionClosed, 0},
		{model.SessionWeekend, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.session), func(t *testing.T) {
			got := RecommendedPollInterval(model.MarketStatus{Session: tt.session})
			if got != tt.want {
				t.Errorf("RecommendedPollInterval = %v, want %v", got, tt.want)
			}
		})
	}
}
