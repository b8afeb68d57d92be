package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/user"
	testutil "github.com/kanisahq/kanisa/tests"
)

func Test_attendanceApi_create(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Gathering Church", "gathering-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "attc.leader", "leader@attc.cd", "", []string{user.RoleLeader}, true)
	token := getToken(t, leader)

	sunday := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)

	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, body: marshallObj(t, attendance.NewGathering{})},
		{
			name: "invalid kind", wantCode: http.StatusBadRequest,
			body: marshallObj(t, attendance.NewGathering{Name: "Sunday Service", Kind: "lol", StartsAt: sunday}),
		},
		{
			name: "created", wantCode: http.StatusCreated,
			body: marshallObj(t, attendance.NewGathering{Name: "Sunday Service", Kind: attendance.KindSunday, StartsAt: sunday, VisitorCount: 4, ChildrenCount: 12}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/gatherings"
		tt.token = token

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_records(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Records Church", "records-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "attr.leader", "leader@attr.cd", "", []string{user.RoleLeader}, true)
	token := getToken(t, leader)

	gth := testutil.CreateGathering(t, attRepo, o.ID, "Sunday Service", attendance.KindSunday, time.Now().UTC().Add(-2*time.Hour))
	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)

	recordsPath := fmt.Sprintf("/v1/gatherings/%s/records", gth.ID)
	recordIDs := make(map[string]string) // member id -> record id

	t.Run("marks are recorded", func(t *testing.T) {
		body := marshallObj(t, attendance.RecordRequest{Marks: []attendance.MarkAttendance{
			{MemberID: awe.ID, Present: true},
			{MemberID: king.ID, Present: false},
		}})
		req, rec := newAuthRequest(http.MethodPost, recordsPath, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var recs []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("len(recs) = %d; want 2", len(recs))
		}
		for _, r := range recs {
			recordIDs[r.MemberID] = r.ID
		}
	})

	t.Run("re-marking updates in place", func(t *testing.T) {
		body := marshallObj(t, attendance.RecordRequest{Marks: []attendance.MarkAttendance{
			{MemberID: king.ID, Present: true},
		}})
		req, rec := newAuthRequest(http.MethodPost, recordsPath, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(updated) != 1 {
			t.Fatalf("len(updated) = %d; want 1", len(updated))
		}
		// the stored row keeps its id across re-records
		if updated[0].ID != recordIDs[king.ID] {
			t.Errorf("re-record returned id %s; want %s", updated[0].ID, recordIDs[king.ID])
		}

		req, rec = newAuthRequest(http.MethodGet, recordsPath, token)
		app.ServeHTTP(rec, req)
		var recs []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("len(recs) = %d; want 2 (one per member)", len(recs))
		}
		for _, r := range recs {
			if !r.Present {
				t.Errorf("member %s marked absent; want present", r.MemberID)
			}
		}
	})

	t.Run("member history", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/members/%s/attendance", awe.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var recs []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(recs) != 1 || recs[0].GatheringID != gth.ID {
			t.Errorf("history = %+v; want a single record for %s", recs, gth.ID)
		}
	})

	t.Run("unknown member mark is rejected", func(t *testing.T) {
		body := marshallObj(t, attendance.RecordRequest{Marks: []attendance.MarkAttendance{
			{MemberID: "b5bdbb86-3a41-4e42-9af1-75fb2c4a9a9b", Present: true},
		}})
		req, rec := newAuthRequest(http.MethodPost, recordsPath, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			t.Errorf("code = %v; want an error", rec.Code)
		}
	})
}

func Test_attendanceApi_summary(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Summary Church", "summary-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "atts.leader", "leader@atts.cd", "", []string{user.RoleLeader}, true)
	token := getToken(t, leader)

	now := time.Now().UTC()
	gth1 := testutil.CreateGathering(t, attRepo, o.ID, "Sunday 1", attendance.KindSunday, now.AddDate(0, 0, -14))
	gth2 := testutil.CreateGathering(t, attRepo, o.ID, "Sunday 2", attendance.KindSunday, now.AddDate(0, 0, -7))

	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)

	testutil.RecordAttendance(t, attRepo, o.ID, gth1.ID, awe.ID, true)
	testutil.RecordAttendance(t, attRepo, o.ID, gth1.ID, king.ID, true)
	testutil.RecordAttendance(t, attRepo, o.ID, gth2.ID, awe.ID, true)
	testutil.RecordAttendance(t, attRepo, o.ID, gth2.ID, king.ID, false)

	req, rec := newAuthRequest(http.MethodGet, "/v1/gatherings/summary", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var s attendance.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if s.Gatherings != 2 {
		t.Errorf("Gatherings = %d; want 2", s.Gatherings)
	}
	if s.Present != 3 {
		t.Errorf("Present = %d; want 3", s.Present)
	}
	if len(s.Series) != 2 {
		t.Fatalf("len(Series) = %d; want 2", len(s.Series))
	}
	// chronological
	if s.Series[0].GatheringID != gth1.ID || s.Series[1].GatheringID != gth2.ID {
		t.Errorf("Series order = %s, %s; want %s, %s", s.Series[0].GatheringID, s.Series[1].GatheringID, gth1.ID, gth2.ID)
	}
}
