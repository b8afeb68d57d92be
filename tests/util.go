package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
)

// NewConfig returns an app configuration suitable for tests.
func NewConfig() *core.Config {
	conf := &core.Config{
		Debug:                     true,
		TestMode:                  true,
		Env:                       "test",
		AppName:                   "Kanisa",
		SecretKey:                 "p@$$w0rd",
		FrontendBaseURL:           "https://kanisa.test",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	conf.Server.JWTExpirationDelta = 7 * 24 * time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	return conf
}

func CreateOrg(t *testing.T, repo org.Repository, name, slug string) org.Org {
	t.Helper()
	now := time.Now().UTC()
	o, err := repo.CreateOrg(context.Background(), nil, org.Org{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOrg() failed: %v", err)
	}
	return o
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	orgID, name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		OrgID:     orgID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), nil, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateMember(
	t *testing.T,
	repo member.Repository,
	orgID, firstName, lastName, status string,
	opts ...func(*member.Member),
) member.Member {
	t.Helper()
	now := time.Now().UTC()
	mbr := member.Member{
		OrgID:     orgID,
		FirstName: firstName,
		LastName:  lastName,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	mbr.SetActive(true)
	if status == member.StatusMember {
		mbr.JoinedAt = now.Truncate(24 * time.Hour)
	}
	for _, opt := range opts {
		opt(&mbr)
	}
	mbr, err := repo.CreateMember(context.Background(), mbr)
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return mbr
}

func CreateGroup(t *testing.T, repo group.Repository, orgID, name, kind string) group.Group {
	t.Helper()
	now := time.Now().UTC()
	grp := group.Group{
		OrgID:     orgID,
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	grp.SetActive(true)
	grp, err := repo.CreateGroup(context.Background(), grp)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func AddGroupMember(t *testing.T, repo group.Repository, groupID, memberID string) {
	t.Helper()
	if err := repo.AddMember(context.Background(), groupID, memberID); err != nil {
		t.Fatalf("AddMember() failed: %v", err)
	}
}

func CreateGathering(
	t *testing.T,
	repo attendance.Repository,
	orgID, name, kind string,
	startsAt time.Time,
) attendance.Gathering {
	t.Helper()
	now := time.Now().UTC()
	gth, err := repo.CreateGathering(context.Background(), attendance.Gathering{
		OrgID:     orgID,
		Name:      name,
		Kind:      kind,
		StartsAt:  startsAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateGathering() failed: %v", err)
	}
	return gth
}

func RecordAttendance(t *testing.T, repo attendance.Repository, orgID, gatheringID, memberID string, present bool) attendance.Record {
	t.Helper()
	rec, err := repo.UpsertRecord(context.Background(), attendance.Record{
		OrgID:       orgID,
		GatheringID: gatheringID,
		MemberID:    memberID,
		Present:     present,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	return rec
}

func CreateFollowUp(
	t *testing.T,
	repo followup.Repository,
	orgID, memberID, kind, status string,
	dueAt time.Time,
) followup.FollowUp {
	t.Helper()
	now := time.Now().UTC()
	fup, err := repo.CreateFollowUp(context.Background(), followup.FollowUp{
		OrgID:     orgID,
		MemberID:  memberID,
		Kind:      kind,
		Status:    status,
		DueAt:     dueAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateFollowUp() failed: %v", err)
	}
	return fup
}
