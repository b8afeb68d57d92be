package member

import (
	"sort"
	"time"
)

var NowFunc = time.Now // mockable

// Birthday is a member's next birthday occurrence.
type Birthday struct {
	Member    Member    `json:"member"`
	Date      time.Time `json:"date"` // next occurrence, date only
	TurnsAge  int       `json:"turns_age"`
	InDays    int       `json:"in_days"`
	MonthDay  string    `json:"month_day"` // "01-02", stable sort key within a month
	IsLeapDay bool      `json:"is_leap_day"`
}

// nextBirthday computes the next occurrence of a birth date on or after ref.
// Feb-29 birthdays are celebrated Mar-1 in non-leap years.
func nextBirthday(birth, ref time.Time) time.Time {
	ref = truncateDay(ref)
	next := occurrenceInYear(birth, ref.Year())
	if next.Before(ref) {
		next = occurrenceInYear(birth, ref.Year()+1)
	}
	return next
}

// occurrenceInYear maps a birth date into a given year; the time.Date
// normalization turns Feb-29 into Mar-1 when the year is not a leap year.
func occurrenceInYear(birth time.Time, year int) time.Time {
	return time.Date(year, birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeapDay(t time.Time) bool {
	return t.Month() == time.February && t.Day() == 29
}

func newBirthday(m Member, ref time.Time) Birthday {
	next := nextBirthday(m.BirthDate, ref)
	return Birthday{
		Member:    m,
		Date:      next,
		TurnsAge:  next.Year() - m.BirthDate.Year(),
		InDays:    int(next.Sub(truncateDay(ref)).Hours() / 24),
		MonthDay:  next.Format("01-02"),
		IsLeapDay: isLeapDay(m.BirthDate),
	}
}

// upcomingBirthdays returns the birthdays falling within `days` days of ref
// (inclusive of today), soonest first.
func upcomingBirthdays(members []Member, ref time.Time, days int) []Birthday {
	bdays := make([]Birthday, 0)
	for _, m := range members {
		if m.BirthDate.IsZero() {
			continue
		}
		b := newBirthday(m, ref)
		if b.InDays <= days {
			bdays = append(bdays, b)
		}
	}
	sort.Slice(bdays, func(i, j int) bool {
		if bdays[i].InDays != bdays[j].InDays {
			return bdays[i].InDays < bdays[j].InDays
		}
		return bdays[i].Member.FullName() < bdays[j].Member.FullName()
	})
	return bdays
}

// birthdaysInMonth returns the birthdays celebrated in the given month of the
// year containing ref, day order.
func birthdaysInMonth(members []Member, ref time.Time, month time.Month) []Birthday {
	bdays := make([]Birthday, 0)
	for _, m := range members {
		if m.BirthDate.IsZero() {
			continue
		}
		occ := occurrenceInYear(m.BirthDate, ref.Year())
		if occ.Month() != month {
			continue
		}
		b := newBirthday(m, ref)
		// newBirthday may roll into next year; report this year's occurrence
		b.Date = occ
		b.TurnsAge = occ.Year() - m.BirthDate.Year()
		b.MonthDay = occ.Format("01-02")
		bdays = append(bdays, b)
	}
	sort.Slice(bdays, func(i, j int) bool {
		if bdays[i].MonthDay != bdays[j].MonthDay {
			return bdays[i].MonthDay < bdays[j].MonthDay
		}
		return bdays[i].Member.FullName() < bdays[j].Member.FullName()
	})
	return bdays
}
