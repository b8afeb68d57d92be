package member

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("member not found")
	ErrNotVisitor = errors.New("member is not a visitor")
)

type (
	Repository interface {
		CreateMember(ctx context.Context, m Member) (Member, error)
		// QueryMembers applies AND on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// FirstName, LastName, Email or Phone.
		QueryMembers(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error)
		GetMember(ctx context.Context, orgID, id string) (Member, error)
		UpdateMember(ctx context.Context, m Member) (Member, error)
		DeleteMembersByID(ctx context.Context, orgID string, ids []string) (int, error)
		CountMembers(ctx context.Context, orgID, status string) (int, error)
	}

	// FollowUpCloser closes a member's open follow-ups; implemented by the
	// followup service and invoked when a visitor is converted.
	FollowUpCloser interface {
		CloseOpenForMember(ctx context.Context, orgID, memberID string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, orgID string, nm NewMember) (Member, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error)
		GetByID(ctx context.Context, orgID, id string) (Member, error)
		Update(ctx context.Context, orig Member, um UpdateMember) (Member, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
		ConvertVisitor(ctx context.Context, orig Member) (Member, error)
		UpcomingBirthdays(ctx context.Context, orgID string, days int) ([]Birthday, error)
		BirthdaysInMonth(ctx context.Context, orgID string, month time.Month) ([]Birthday, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		fupCloser FollowUpCloser
		conf      *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, fupCloser FollowUpCloser, conf *core.Config) ServiceInterface {
	return &service{db: db, repo: repo, fupCloser: fupCloser, conf: conf}
}

func (svc *service) Create(ctx context.Context, orgID string, nm NewMember) (Member, error) {
	now := time.Now().UTC()
	m := Member{
		OrgID:         orgID,
		FirstName:     nm.FirstName,
		LastName:      nm.LastName,
		Gender:        nm.Gender,
		Email:         nm.Email,
		Phone:         nm.Phone,
		Address:       nm.Address,
		BirthDate:     nm.BirthDate,
		MaritalStatus: nm.MaritalStatus,
		Status:        nm.Status,
		JoinedAt:      nm.JoinedAt,
		Occupation:    nm.Occupation,
		Notes:         nm.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if m.Status == StatusMember && m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}
	m.SetActive(true)
	return svc.repo.CreateMember(ctx, m)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error) {
	return svc.repo.QueryMembers(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (Member, error) {
	return svc.repo.GetMember(ctx, orgID, id)
}

func (svc *service) Update(ctx context.Context, orig Member, um UpdateMember) (Member, error) {
	m := Member{
		ID:            orig.ID,
		OrgID:         orig.OrgID,
		FirstName:     um.FirstName,
		LastName:      um.LastName,
		Gender:        um.Gender,
		Email:         um.Email,
		Phone:         um.Phone,
		Address:       um.Address,
		BirthDate:     um.BirthDate,
		MaritalStatus: um.MaritalStatus,
		Status:        um.Status,
		JoinedAt:      um.JoinedAt,
		Occupation:    um.Occupation,
		Notes:         um.Notes,
		IsActive:      um.IsActive,
		CreatedAt:     orig.CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	if m.IsActive == nil {
		m.IsActive = orig.IsActive
	}
	return svc.repo.UpdateMember(ctx, m)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	_, err := svc.repo.DeleteMembersByID(ctx, orgID, ids)
	return err
}

// ConvertVisitor promotes a visitor to a full member: the status flips,
// the joined date is stamped and any open follow-ups are closed.
func (svc *service) ConvertVisitor(ctx context.Context, orig Member) (Member, error) {
	if !orig.IsVisitor() {
		return Member{}, ErrNotVisitor
	}

	now := time.Now().UTC()
	orig.Status = StatusMember
	orig.JoinedAt = now
	orig.UpdatedAt = now

	m, err := svc.repo.UpdateMember(ctx, orig)
	if err != nil {
		return Member{}, err
	}

	if svc.fupCloser != nil {
		if err = svc.fupCloser.CloseOpenForMember(ctx, m.OrgID, m.ID); err != nil {
			return Member{}, errors.Wrap(err, "closing open follow-ups")
		}
	}
	return m, nil
}

func (svc *service) UpcomingBirthdays(ctx context.Context, orgID string, days int) ([]Birthday, error) {
	members, err := svc.repo.QueryMembers(ctx, orgID, &QueryFilter{HasBirthDate: true, IsActive: boolPtr(true)}, nil)
	if err != nil {
		return nil, err
	}
	return upcomingBirthdays(members, NowFunc().UTC(), days), nil
}

func (svc *service) BirthdaysInMonth(ctx context.Context, orgID string, month time.Month) ([]Birthday, error) {
	members, err := svc.repo.QueryMembers(ctx, orgID, &QueryFilter{HasBirthDate: true, IsActive: boolPtr(true)}, nil)
	if err != nil {
		return nil, err
	}
	return birthdaysInMonth(members, NowFunc().UTC(), month), nil
}

func boolPtr(b bool) *bool { return &b }
