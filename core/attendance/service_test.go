package attendance

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2021, time.March, d, 10, 0, 0, 0, time.UTC) }

	t.Run("empty", func(t *testing.T) {
		s := summarize(nil)
		if s.Gatherings != 0 || s.Average != 0 {
			t.Errorf("summarize(nil) = %+v, want zero summary", s)
		}
		if s.Series == nil {
			t.Error("Series should be non-nil for JSON")
		}
	})

	t.Run("totals and average", func(t *testing.T) {
		s := summarize([]GatheringTotal{
			{GatheringID: "b", StartsAt: day(14), Present: 80, Visitors: 5, Children: 15},
			{GatheringID: "a", StartsAt: day(7), Present: 100, Visitors: 10, Children: 20},
		})
		if s.Gatherings != 2 {
			t.Errorf("Gatherings = %d, want 2", s.Gatherings)
		}
		if s.Present != 180 || s.Visitors != 15 || s.Children != 35 {
			t.Errorf("totals = %d/%d/%d, want 180/15/35", s.Present, s.Visitors, s.Children)
		}
		if want := 115.0; s.Average != want {
			t.Errorf("Average = %v, want %v", s.Average, want)
		}
		// chronological series
		if s.Series[0].GatheringID != "a" || s.Series[1].GatheringID != "b" {
			t.Errorf("Series order = %s, %s; want a, b", s.Series[0].GatheringID, s.Series[1].GatheringID)
		}
	})
}
