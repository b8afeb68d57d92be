package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"

	echoapi "github.com/kanisahq/kanisa/apps/api/echo"
	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
	testutil "github.com/kanisahq/kanisa/tests"
)

func Test_orgApi_register(t *testing.T) {
	path := "/v1/orgs/register"

	body := func(orgName, slug, uname, email, pwd string) []byte {
		return marshallObj(t, map[string]interface{}{
			"org":   map[string]string{"name": orgName, "slug": slug},
			"owner": map[string]string{"name": "Owner", "username": uname, "email": email, "password": pwd, "password_confirm": pwd},
		})
	}

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			body: marshallObj(t, map[string]interface{}{"org": map[string]string{}, "owner": map[string]string{}}),
		},
		{
			name: "slug too short", wantCode: http.StatusBadRequest,
			body: body("Grace Chapel", "gr", "graceowner", "owner@test.cd", "LolC@t123"),
		},
		{
			name: "registered", wantCode: http.StatusCreated,
			body: body("Grace Chapel", "grace-chapel", "graceowner", "owner@test.cd", "LolC@t123"),
		},
		{
			name: "duplicate slug", wantCode: http.StatusBadRequest,
			body: body("Grace II", "grace-chapel", "graceowner2", "owner2@test.cd", "LolC@t123"),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var resp echoapi.OrgRegistrationResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if resp.Org.Slug != "grace-chapel" {
					t.Errorf("Org.Slug = %s, want grace-chapel", resp.Org.Slug)
				}
				if resp.Owner.OrgID != resp.Org.ID {
					t.Errorf("Owner.OrgID = %s, want %s", resp.Owner.OrgID, resp.Org.ID)
				}
				// the first account owns the org, whatever the request says
				if len(resp.Owner.Roles) != 1 || resp.Owner.Roles[0] != user.RoleAdminOwner {
					t.Errorf("Owner.Roles = %v, want [%s]", resp.Owner.Roles, user.RoleAdminOwner)
				}
			}
		})
	}
}

type failingUserService struct{ user.ServiceInterface }

func (failingUserService) CreateTx(ctx context.Context, tx core.DBTransactor, orgID string, nu user.NewUser) (user.User, error) {
	return user.User{}, errors.New("user insert failed")
}

// A failed owner creation must not leave an orphan tenant behind.
func Test_orgApi_registerAtomic(t *testing.T) {
	failDeps := deps
	failDeps.UserSvc = failingUserService{deps.UserSvc}
	failApp := echoapi.NewServer(failDeps)

	body := marshallObj(t, map[string]interface{}{
		"org":   map[string]string{"name": "Doomed Church", "slug": "doomed-church"},
		"owner": map[string]string{"name": "Owner", "username": "doomedowner", "email": "owner@doomed.cd", "password": "LolC@t123", "password_confirm": "LolC@t123"},
	})
	req, rec := newRequest(http.MethodPost, "/v1/orgs/register", body)
	failApp.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusInternalServerError, rec.Body.String())
	}

	if _, err := orgRepo.GetOrg(context.Background(), org.GetFilter{Slug: "doomed-church"}); err != org.ErrNotFound {
		t.Errorf("GetOrg() error = %v; want %v", err, org.ErrNotFound)
	}
}

func Test_orgApi_current(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Hope Center", "hope-center")
	o2 := testutil.CreateOrg(t, orgRepo, "Other Church", "other-church")
	owner := testutil.CreateUser(t, usrRepo, o.ID, "Owner", "hope.owner", "owner@hope.cd", "", []string{user.RoleAdminOwner}, true)
	pastor := testutil.CreateUser(t, usrRepo, o.ID, "Pastor", "hope.pastor", "pastor@hope.cd", "", []string{user.RoleAdminPastor}, true)
	stranger := testutil.CreateUser(t, usrRepo, o2.ID, "Stranger", "other.owner", "owner@other.cd", "", []string{user.RoleAdminOwner}, true)

	t.Run("get requires auth", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/orgs/current")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("get returns own org", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, o)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/orgs/current", getToken(t, pastor))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update is owner only", func(t *testing.T) {
		body := marshallObj(t, org.UpdateOrg{Name: "Hope Center Intl"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/orgs/current", getToken(t, pastor), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner updates org", func(t *testing.T) {
		body := marshallObj(t, org.UpdateOrg{Name: "Hope Center Intl", Email: "hello@hope.cd"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/orgs/current", getToken(t, owner), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		refreshed, err := orgRepo.GetOrg(context.Background(), org.GetFilter{ID: o.ID})
		if err != nil {
			t.Fatal(err)
		}
		if refreshed.Name != "Hope Center Intl" || refreshed.Email != "hello@hope.cd" {
			t.Errorf("org not updated: %+v", refreshed)
		}
		if refreshed.Slug != o.Slug {
			t.Errorf("Slug = %s, want %s (immutable)", refreshed.Slug, o.Slug)
		}
	})

	t.Run("stranger sees own org only", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, o2)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/orgs/current", getToken(t, stranger))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
