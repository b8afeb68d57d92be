package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/report"
	"github.com/kanisahq/kanisa/core/user"
	testutil "github.com/kanisahq/kanisa/tests"
)

func Test_reportApi_dashboard(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Report Church", "report-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "rpt.leader", "leader@rptc.cd", "", []string{user.RoleLeader}, true)
	plain := testutil.CreateUser(t, usrRepo, o.ID, "Plain", "rpt.plain", "plain@rptc.cd", "", []string{user.RoleMember}, true)
	token := getToken(t, leader)

	now := time.Now().UTC()
	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember, func(m *member.Member) {
		m.BirthDate = time.Date(now.Year()-30, now.Month(), 15, 0, 0, 0, 0, time.UTC)
	})
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)
	hero := testutil.CreateMember(t, mbrRepo, o.ID, "Hero", "Ilunga", member.StatusVisitor)

	testutil.CreateGroup(t, grpRepo, o.ID, "Choir", group.KindGroup)
	testutil.CreateFollowUp(t, fupRepo, o.ID, hero.ID, followup.KindVisit, followup.StatusPending, now.AddDate(0, 0, 2))

	gth := testutil.CreateGathering(t, attRepo, o.ID, "Sunday Service", attendance.KindSunday, now.AddDate(0, 0, -7))
	testutil.RecordAttendance(t, attRepo, o.ID, gth.ID, awe.ID, true)
	testutil.RecordAttendance(t, attRepo, o.ID, gth.ID, king.ID, true)
	testutil.RecordAttendance(t, attRepo, o.ID, gth.ID, hero.ID, false)

	t.Run("anonymous rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/reports/dashboard", nil)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("plain member rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/dashboard", getToken(t, plain))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusForbidden, rec.Body.String())
		}
	})

	t.Run("summary", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/dashboard", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var s report.Summary
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if s.Members != 2 {
			t.Errorf("Members = %d; want 2", s.Members)
		}
		if s.Visitors != 1 {
			t.Errorf("Visitors = %d; want 1", s.Visitors)
		}
		if s.Groups != 1 {
			t.Errorf("Groups = %d; want 1", s.Groups)
		}
		if s.NewMembers != 2 {
			t.Errorf("NewMembers = %d; want 2", s.NewMembers)
		}
		if s.PendingFollowUps != 1 {
			t.Errorf("PendingFollowUps = %d; want 1", s.PendingFollowUps)
		}
		if s.BirthdaysThisMonth != 1 {
			t.Errorf("BirthdaysThisMonth = %d; want 1", s.BirthdaysThisMonth)
		}
		// one gathering with two marks present
		if s.AttendanceAverage != 2 {
			t.Errorf("AttendanceAverage = %v; want 2", s.AttendanceAverage)
		}
	})

	t.Run("attendance trend", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/attendance-trend", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var trend report.Trend
		if err := json.Unmarshal(rec.Body.Bytes(), &trend); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if trend.Gatherings != 1 {
			t.Errorf("Gatherings = %d; want 1", trend.Gatherings)
		}
		if trend.Present != 2 {
			t.Errorf("Present = %d; want 2", trend.Present)
		}
		if len(trend.Series) != 1 || trend.Series[0].GatheringID != gth.ID {
			t.Errorf("Series = %+v; want the single gathering", trend.Series)
		}
	})
}

func Test_reportApi_memberGrowth(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Growth Church", "growth-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "gro.leader", "leader@groc.cd", "", []string{user.RoleLeader}, true)
	token := getToken(t, leader)

	now := time.Now().UTC()
	testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)
	testutil.CreateMember(t, mbrRepo, o.ID, "Hero", "Ilunga", member.StatusVisitor)

	t.Run("invalid months", func(t *testing.T) {
		for _, months := range []string{"0", "-3", "abc"} {
			req, rec := newAuthRequest(http.MethodGet, "/v1/reports/member-growth?months="+months, token)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("months=%s: code = %v; want %v", months, rec.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("window is capped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/member-growth?months=100000000", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var points []report.GrowthPoint
		if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(points) != 120 {
			t.Errorf("len(points) = %d; want 120", len(points))
		}
	})

	t.Run("trailing window with empty months", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/member-growth?months=3", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var points []report.GrowthPoint
		if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("len(points) = %d; want 3", len(points))
		}
		if last := points[2]; last.Month != now.Format("2006-01") || last.Joined != 2 {
			t.Errorf("points[2] = %+v; want current month with 2 joins", last)
		}
		for _, p := range points[:2] {
			if p.Joined != 0 {
				t.Errorf("month %s: Joined = %d; want 0", p.Month, p.Joined)
			}
		}
	})
}
