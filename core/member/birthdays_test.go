package member

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		ref   time.Time
		want  time.Time
	}{
		{name: "later this year", birth: date(1990, time.June, 15), ref: date(2021, time.March, 1), want: date(2021, time.June, 15)},
		{name: "already passed", birth: date(1990, time.June, 15), ref: date(2021, time.July, 1), want: date(2022, time.June, 15)},
		{name: "today", birth: date(1990, time.June, 15), ref: date(2021, time.June, 15), want: date(2021, time.June, 15)},
		{name: "leap day on leap year", birth: date(1992, time.February, 29), ref: date(2020, time.January, 1), want: date(2020, time.February, 29)},
		{name: "leap day off leap year", birth: date(1992, time.February, 29), ref: date(2021, time.January, 1), want: date(2021, time.March, 1)},
		{name: "ref time of day ignored", birth: date(1990, time.June, 15), ref: time.Date(2021, time.June, 15, 23, 30, 0, 0, time.UTC), want: date(2021, time.June, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextBirthday(tt.birth, tt.ref); !got.Equal(tt.want) {
				t.Errorf("nextBirthday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	mkMember := func(first string, birth time.Time) Member {
		m := Member{FirstName: first, LastName: "Test", BirthDate: birth, Status: StatusMember}
		m.SetActive(true)
		return m
	}
	ref := date(2021, time.June, 10)
	members := []Member{
		mkMember("Ada", date(1990, time.June, 12)),   // in 2 days
		mkMember("Bob", date(1985, time.June, 10)),   // today
		mkMember("Cleo", date(2000, time.June, 25)),  // in 15 days
		mkMember("Dan", date(1999, time.January, 2)), // next year
		mkMember("Eve", time.Time{}),                 // unknown birth date
	}

	got := upcomingBirthdays(members, ref, 7)
	if len(got) != 2 {
		t.Fatalf("upcomingBirthdays() returned %d birthdays, want 2", len(got))
	}
	if got[0].Member.FirstName != "Bob" || got[0].InDays != 0 {
		t.Errorf("first = %s in %d days, want Bob in 0 days", got[0].Member.FirstName, got[0].InDays)
	}
	if got[1].Member.FirstName != "Ada" || got[1].InDays != 2 {
		t.Errorf("second = %s in %d days, want Ada in 2 days", got[1].Member.FirstName, got[1].InDays)
	}
	if got[0].TurnsAge != 2021-1985 {
		t.Errorf("TurnsAge = %d, want %d", got[0].TurnsAge, 2021-1985)
	}
}

func TestBirthdaysInMonth(t *testing.T) {
	members := []Member{
		{FirstName: "Ada", BirthDate: date(1990, time.June, 12)},
		{FirstName: "Bob", BirthDate: date(1985, time.June, 1)},
		{FirstName: "Cleo", BirthDate: date(2000, time.July, 25)},
	}
	got := birthdaysInMonth(members, date(2021, time.June, 20), time.June)
	if len(got) != 2 {
		t.Fatalf("birthdaysInMonth() returned %d birthdays, want 2", len(got))
	}
	// day order, even for dates already passed
	if got[0].Member.FirstName != "Bob" || got[1].Member.FirstName != "Ada" {
		t.Errorf("order = %s, %s; want Bob, Ada", got[0].Member.FirstName, got[1].Member.FirstName)
	}
	if !got[1].Date.Equal(date(2021, time.June, 12)) {
		t.Errorf("Date = %v, want %v", got[1].Date, date(2021, time.June, 12))
	}
}
