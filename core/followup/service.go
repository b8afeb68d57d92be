package followup

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
)

var (
	// errors
	ErrNotFound = errors.New("follow-up not found")
)

type (
	Repository interface {
		CreateFollowUp(ctx context.Context, f FollowUp) (FollowUp, error)
		QueryFollowUps(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]FollowUp, error)
		GetFollowUp(ctx context.Context, orgID, id string) (FollowUp, error)
		UpdateFollowUp(ctx context.Context, f FollowUp) (FollowUp, error)
		DeleteFollowUpsByID(ctx context.Context, orgID string, ids []string) (int, error)
		// CloseOpenByMember marks all of a member's open follow-ups done.
		CloseOpenByMember(ctx context.Context, orgID, memberID string, completedAt time.Time) error
		CountOpen(ctx context.Context, orgID string) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, orgID string, nf NewFollowUp) (FollowUp, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]FollowUp, error)
		GetByID(ctx context.Context, orgID, id string) (FollowUp, error)
		Update(ctx context.Context, orig FollowUp, uf UpdateFollowUp) (FollowUp, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
		Overdue(ctx context.Context, orgID string) ([]FollowUp, error)
		CloseOpenForMember(ctx context.Context, orgID, memberID string) error
	}

	service struct {
		db   core.DB
		repo Repository
		conf *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, conf *core.Config) ServiceInterface {
	return &service{db: db, repo: repo, conf: conf}
}

func (svc *service) Create(ctx context.Context, orgID string, nf NewFollowUp) (FollowUp, error) {
	now := time.Now().UTC()
	f := FollowUp{
		OrgID:      orgID,
		MemberID:   nf.MemberID,
		AssigneeID: nf.AssigneeID,
		Kind:       nf.Kind,
		Status:     StatusPending,
		DueAt:      nf.DueAt,
		Notes:      nf.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateFollowUp(ctx, f)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]FollowUp, error) {
	return svc.repo.QueryFollowUps(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (FollowUp, error) {
	return svc.repo.GetFollowUp(ctx, orgID, id)
}

func (svc *service) Update(ctx context.Context, orig FollowUp, uf UpdateFollowUp) (FollowUp, error) {
	now := time.Now().UTC()
	f := FollowUp{
		ID:          orig.ID,
		OrgID:       orig.OrgID,
		MemberID:    orig.MemberID,
		AssigneeID:  uf.AssigneeID,
		Kind:        uf.Kind,
		Status:      uf.Status,
		DueAt:       uf.DueAt,
		Notes:       uf.Notes,
		CompletedAt: orig.CompletedAt,
		CreatedAt:   orig.CreatedAt,
		UpdatedAt:   now,
	}
	// completing stamps completed_at; reopening clears it
	if f.Status == StatusDone && orig.Status != StatusDone {
		f.CompletedAt = now
	} else if f.Status != StatusDone {
		f.CompletedAt = time.Time{}
	}
	return svc.repo.UpdateFollowUp(ctx, f)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	_, err := svc.repo.DeleteFollowUpsByID(ctx, orgID, ids)
	return err
}

func (svc *service) Overdue(ctx context.Context, orgID string) ([]FollowUp, error) {
	fups, err := svc.repo.QueryFollowUps(ctx, orgID, &QueryFilter{DueTo: time.Now().UTC()}, nil)
	if err != nil {
		return nil, err
	}
	overdue := make([]FollowUp, 0, len(fups))
	for _, f := range fups {
		if f.IsOverdue(time.Now().UTC()) {
			overdue = append(overdue, f)
		}
	}
	return overdue, nil
}

func (svc *service) CloseOpenForMember(ctx context.Context, orgID, memberID string) error {
	return svc.repo.CloseOpenByMember(ctx, orgID, memberID, time.Now().UTC())
}
