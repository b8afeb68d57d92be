package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/member"
)

var (
	// errors
	ErrNotFound   = errors.New("group not found")
	ErrNameExists = errors.New("a group with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, orgID, name string) error
		CreateGroup(ctx context.Context, g Group) (Group, error)
		QueryGroups(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error)
		GetGroup(ctx context.Context, orgID, id string) (Group, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		DeleteGroupsByID(ctx context.Context, orgID string, ids []string) (int, error)
		CountGroups(ctx context.Context, orgID string) (int, error)

		// membership; Add/Remove are idempotent
		AddMember(ctx context.Context, groupID, memberID string) error
		RemoveMember(ctx context.Context, groupID, memberID string) error
		QueryGroupMembers(ctx context.Context, groupID string) ([]member.Member, error)
		QueryMemberGroups(ctx context.Context, orgID, memberID string) ([]Group, error)
	}

	ServiceInterface interface {
		CheckUniqueness(orgID, name string) error
		Create(ctx context.Context, orgID string, ng NewGroup) (Group, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error)
		GetByID(ctx context.Context, orgID, id string) (Group, error)
		Update(ctx context.Context, orig Group, ug UpdateGroup) (Group, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
		Join(ctx context.Context, g Group, memberID string) error
		Leave(ctx context.Context, g Group, memberID string) error
		Members(ctx context.Context, g Group) ([]member.Member, error)
		MemberGroups(ctx context.Context, orgID, memberID string) ([]Group, error)
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

func (svc *service) CheckUniqueness(orgID, name string) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), orgID, name); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, orgID string, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	g := Group{
		OrgID:       orgID,
		Name:        ng.Name,
		Kind:        ng.Kind,
		Description: ng.Description,
		LeaderID:    ng.LeaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	g.SetActive(true)
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, orgID, id)
}

func (svc *service) Update(ctx context.Context, orig Group, ug UpdateGroup) (Group, error) {
	g := Group{
		ID:          orig.ID,
		OrgID:       orig.OrgID,
		Name:        ug.Name,
		Kind:        ug.Kind,
		Description: ug.Description,
		LeaderID:    ug.LeaderID,
		IsActive:    ug.IsActive,
		CreatedAt:   orig.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if g.IsActive == nil {
		g.IsActive = orig.IsActive
	}
	return svc.repo.UpdateGroup(ctx, g)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	_, err := svc.repo.DeleteGroupsByID(ctx, orgID, ids)
	return err
}

func (svc *service) Join(ctx context.Context, g Group, memberID string) error {
	return svc.repo.AddMember(ctx, g.ID, memberID)
}

func (svc *service) Leave(ctx context.Context, g Group, memberID string) error {
	return svc.repo.RemoveMember(ctx, g.ID, memberID)
}

func (svc *service) Members(ctx context.Context, g Group) ([]member.Member, error) {
	return svc.repo.QueryGroupMembers(ctx, g.ID)
}

func (svc *service) MemberGroups(ctx context.Context, orgID, memberID string) ([]Group, error) {
	return svc.repo.QueryMemberGroups(ctx, orgID, memberID)
}
