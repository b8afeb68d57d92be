package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core/attendance"
)

// One attendance record per (gathering, member): re-recording must update the
// stored row and hand back its original id, never a fresh one.
func TestUpsertRecordKeepsID(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	var repo attendance.Repository = NewAttendanceRepository(db)
	ctx := context.Background()

	orgID := "c1a6b7ce-98cf-4b9a-8f0d-2f1a7b3c4d5e"
	memberID := "9d2b4a6c-8e1f-4a3b-9c5d-7e0f1a2b3c4d"

	gth, err := repo.CreateGathering(ctx, attendance.Gathering{
		OrgID:    orgID,
		Name:     "Sunday Service",
		Kind:     attendance.KindSunday,
		StartsAt: time.Now().UTC().AddDate(0, 0, -7),
	})
	if err != nil {
		t.Fatalf("CreateGathering() failed: %v", err)
	}

	first, err := repo.UpsertRecord(ctx, attendance.Record{
		OrgID:       orgID,
		GatheringID: gth.ID,
		MemberID:    memberID,
		Present:     false,
		RecordedAt:  time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertRecord() returned an empty id")
	}

	second, err := repo.UpsertRecord(ctx, attendance.Record{
		OrgID:       orgID,
		GatheringID: gth.ID,
		MemberID:    memberID,
		Present:     true,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpsertRecord() failed on re-record: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-record returned id %s; want the stored row's id %s", second.ID, first.ID)
	}
	if !second.Present {
		t.Error("re-record did not update the present flag")
	}

	recs, err := repo.QueryGatheringRecords(ctx, gth.ID)
	if err != nil {
		t.Fatalf("QueryGatheringRecords() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d; want 1", len(recs))
	}
	if recs[0].ID != first.ID || !recs[0].Present {
		t.Errorf("stored record = %+v; want id %s and present", recs[0], first.ID)
	}
}
