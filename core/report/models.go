package report

import (
	"time"

	"github.com/kanisahq/kanisa/core/attendance"
)

// Summary is the dashboard headline card set.
type Summary struct {
	Members            int     `json:"members"`
	Visitors           int     `json:"visitors"`
	Groups             int     `json:"groups"`
	NewMembers         int     `json:"new_members"` // joined within the range
	AttendanceAverage  float64 `json:"attendance_average"`
	PendingFollowUps   int     `json:"pending_follow_ups"`
	BirthdaysThisMonth int     `json:"birthdays_this_month"`
}

// GrowthPoint is a month bucket of member joins.
type GrowthPoint struct {
	Month  string `json:"month"` // "2006-01"
	Joined int    `json:"joined"`
}

// RangeFilter bounds a report; a zero From defaults to 30 days before To,
// a zero To defaults to now.
type RangeFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}

func (rf *RangeFilter) Normalize(now time.Time) {
	if rf.To.IsZero() {
		rf.To = now
	}
	if rf.From.IsZero() {
		rf.From = rf.To.AddDate(0, 0, -30)
	}
}

// Trend is the attendance rollup served to dashboard charts.
type Trend = attendance.Summary
