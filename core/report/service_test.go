package report

import (
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core/member"
)

func TestBucketByMonth(t *testing.T) {
	join := func(y int, m time.Month, d int) member.Member {
		return member.Member{Status: member.StatusMember, JoinedAt: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}
	from := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	members := []member.Member{
		join(2021, time.January, 3),
		join(2021, time.January, 20),
		join(2021, time.March, 7),
		{Status: member.StatusMember}, // no joined date
	}

	points := bucketByMonth(members, from, 3)
	if len(points) != 3 {
		t.Fatalf("bucketByMonth() returned %d points, want 3", len(points))
	}
	want := []GrowthPoint{
		{Month: "2021-01", Joined: 2},
		{Month: "2021-02", Joined: 0},
		{Month: "2021-03", Joined: 1},
	}
	for i, p := range points {
		if p != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestRangeFilterNormalize(t *testing.T) {
	now := time.Date(2021, time.June, 15, 12, 0, 0, 0, time.UTC)

	var rf RangeFilter
	rf.Normalize(now)
	if !rf.To.Equal(now) {
		t.Errorf("To = %v, want %v", rf.To, now)
	}
	if want := now.AddDate(0, 0, -30); !rf.From.Equal(want) {
		t.Errorf("From = %v, want %v", rf.From, want)
	}

	from := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	rf = RangeFilter{From: from}
	rf.Normalize(now)
	if !rf.From.Equal(from) {
		t.Errorf("From = %v, want %v (untouched)", rf.From, from)
	}
}
