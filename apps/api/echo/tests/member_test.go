package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/user"
	excelsvc "github.com/kanisahq/kanisa/services/excel"
	testutil "github.com/kanisahq/kanisa/tests"
)

func Test_memberApi_create(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Create Members", "create-members")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "mbrc.leader", "leader@mbrc.cd", "", []string{user.RoleLeader}, true)
	plain := testutil.CreateUser(t, usrRepo, o.ID, "Plain", "mbrc.plain", "plain@mbrc.cd", "", []string{user.RoleMember}, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "staff required", token: getToken(t, plain), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: getToken(t, leader), wantCode: http.StatusBadRequest,
			body: marshallObj(t, member.NewMember{}),
		},
		{
			name: "invalid gender", token: getToken(t, leader), wantCode: http.StatusBadRequest,
			body: marshallObj(t, member.NewMember{FirstName: "Awe", LastName: "Mwamba", Gender: "lol"}),
		},
		{
			name: "created", token: getToken(t, leader), wantCode: http.StatusCreated,
			body: marshallObj(t, member.NewMember{FirstName: "Awe", LastName: "Mwamba", Gender: member.GenderMale, Status: member.StatusVisitor}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/members"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var mbr member.Member
				if err := json.Unmarshal(rec.Body.Bytes(), &mbr); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if mbr.ID == "" {
					t.Error("empty member id")
				}
				if mbr.OrgID != o.ID {
					t.Errorf("OrgID = %s; want %s", mbr.OrgID, o.ID)
				}
				if !mbr.Active() {
					t.Error("new member should be active")
				}
			}
		})
	}
}

func Test_memberApi_query(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Query Members", "query-members")
	other := testutil.CreateOrg(t, orgRepo, "Query Members Other", "query-members-other")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "mbrq.leader", "leader@mbrq.cd", "", []string{user.RoleLeader}, true)

	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)
	hero := testutil.CreateMember(t, mbrRepo, o.ID, "Hero", "Ilunga", member.StatusVisitor)
	testutil.CreateMember(t, mbrRepo, other.ID, "Foreign", "Member", member.StatusMember)

	token := getToken(t, leader)
	path := func(params url.Values) string { return "/v1/members?" + params.Encode() }

	tests := []httpTest{
		{
			// last name, first name ordering; no cross-org leak
			name: "own org only", path: "/v1/members", wantData: marshallList(t, hero, king, awe),
		},
		{name: "search", path: path(url.Values{"search": []string{"mwamba"}}), wantData: marshallList(t, awe)},
		{name: "full name search", path: path(url.Values{"search": []string{"king kasongo"}}), wantData: marshallList(t, king)},
		{name: "status=visitor", path: path(url.Values{"status": []string{member.StatusVisitor}}), wantData: marshallList(t, hero)},
		{name: "status=member", path: path(url.Values{"status": []string{member.StatusMember}}), wantData: marshallList(t, king, awe)},
		{name: "unknown search", path: path(url.Values{"search": []string{"lol"}}), wantData: marshallList(t)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.token = token
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_memberApi_convertVisitor(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Convert Members", "convert-members")
	other := testutil.CreateOrg(t, orgRepo, "Convert Members Other", "convert-members-other")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "mbrv.leader", "leader@mbrv.cd", "", []string{user.RoleLeader}, true)

	visitor := testutil.CreateMember(t, mbrRepo, o.ID, "Hero", "Ilunga", member.StatusVisitor)
	settled := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	foreign := testutil.CreateMember(t, mbrRepo, other.ID, "Foreign", "Visitor", member.StatusVisitor)

	open := testutil.CreateFollowUp(t, fupRepo, o.ID, visitor.ID, followup.KindVisit, followup.StatusPending, time.Time{})
	token := getToken(t, leader)
	path := func(id string) string { return fmt.Sprintf("/v1/members/%s/convert", id) }

	t.Run("only visitors convert", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path(settled.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("cross-org is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path(foreign.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusNotFound, rec.Body.String())
		}
	})

	t.Run("converted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path(visitor.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var mbr member.Member
		if err := json.Unmarshal(rec.Body.Bytes(), &mbr); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if mbr.Status != member.StatusMember {
			t.Errorf("Status = %s; want %s", mbr.Status, member.StatusMember)
		}
		if mbr.JoinedAt.IsZero() {
			t.Error("JoinedAt should be set")
		}

		// conversion closes the visitor's open follow-ups
		refreshed, err := fupRepo.GetFollowUp(context.Background(), o.ID, open.ID)
		if err != nil {
			t.Fatal(err)
		}
		if refreshed.Status != followup.StatusDone {
			t.Errorf("follow-up Status = %s; want %s", refreshed.Status, followup.StatusDone)
		}
		if refreshed.CompletedAt.IsZero() {
			t.Error("follow-up CompletedAt should be set")
		}
	})
}

func Test_memberApi_upcomingBirthdays(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Birthday Members", "birthday-members")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "mbrb.leader", "leader@mbrb.cd", "", []string{user.RoleLeader}, true)

	now := time.Now().UTC()
	soon := now.AddDate(-30, 0, 3) // turns 30 in 3 days
	testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember, func(m *member.Member) { m.BirthDate = soon })
	testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember) // no birth date

	req, rec := newAuthRequest(http.MethodGet, "/v1/members/birthdays?days=7", getToken(t, leader))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var bdays []member.Birthday
	if err := json.Unmarshal(rec.Body.Bytes(), &bdays); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if len(bdays) != 1 {
		t.Fatalf("len(bdays) = %d; want 1; body = %s", len(bdays), rec.Body.String())
	}
	if got := bdays[0].Member.FullName(); got != "Awe Mwamba" {
		t.Errorf("FullName() = %s; want Awe Mwamba", got)
	}
	if bdays[0].TurnsAge != 30 {
		t.Errorf("TurnsAge = %d; want 30", bdays[0].TurnsAge)
	}
}

func Test_memberApi_exportImport(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Excel Members", "excel-members")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "mbrx.leader", "leader@mbrx.cd", "", []string{user.RoleLeader}, true)
	testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	token := getToken(t, leader)

	t.Run("export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/members/export", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		ct := rec.Header().Get("Content-Type")
		if !strings.Contains(ct, "spreadsheet") {
			t.Errorf("Content-Type = %s; want a spreadsheet type", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "members.xlsx") {
			t.Errorf("Content-Disposition = %s; want members.xlsx attachment", cd)
		}
	})

	t.Run("import", func(t *testing.T) {
		buf, err := excelsvc.ExportMembers([]member.Member{
			{FirstName: "King", LastName: "Kasongo", Gender: member.GenderMale, Status: member.StatusMember},
			{FirstName: "Bad", LastName: "Row", Gender: "???"}, // invalid row, reported not fatal
		})
		if err != nil {
			t.Fatalf("ExportMembers() failed: %v", err)
		}

		req, rec := newFileUploadRequest(t, "/v1/members/import", token, "file", "members.xlsx", buf.Bytes())
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res excelsvc.ImportResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if res.Imported != 1 {
			t.Errorf("Imported = %d; want 1", res.Imported)
		}
		if len(res.Errors) != 1 {
			t.Errorf("len(Errors) = %d; want 1", len(res.Errors))
		}

		members, err := mbrRepo.QueryMembers(context.Background(), o.ID, &member.QueryFilter{Search: "Kasongo"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(members) != 1 {
			t.Errorf("len(members) = %d; want 1", len(members))
		}
	})
}

func Test_memberApi_destroyMultiple(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Bulk Delete", "bulk-delete")
	admin := testutil.CreateUser(t, usrRepo, o.ID, "Admin", "bulk.admin", "admin@bulk.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember)
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember)

	t.Run("malformed ids are rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/members?id=notauuid", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}

		// nothing was deleted
		if _, err := mbrRepo.GetMember(context.Background(), o.ID, awe.ID); err != nil {
			t.Errorf("GetMember() failed: %v", err)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		path := fmt.Sprintf("/v1/members?id=%s&id=%s", awe.ID, king.ID)
		req, rec := newAuthRequest(http.MethodDelete, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := mbrRepo.GetMember(context.Background(), o.ID, awe.ID); err != member.ErrNotFound {
			t.Errorf("GetMember() error = %v; want %v", err, member.ErrNotFound)
		}
	})
}
