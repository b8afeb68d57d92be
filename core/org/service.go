package org

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("organization not found")
	ErrSlugExists = errors.New("an organization with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string) error
		// CreateOrg runs on tx when one is given.
		CreateOrg(ctx context.Context, tx core.DBTransactor, o Org) (Org, error)
		GetOrg(ctx context.Context, filter GetFilter) (Org, error)
		QueryOrgs(ctx context.Context, ordering []core.DBOrdering) ([]Org, error)
		UpdateOrg(ctx context.Context, o Org) (Org, error)
		DeleteOrgsByID(ctx context.Context, ids []string) (int, error)
	}

	// GetFilter fields are mutually exclusive; the first non-empty one wins.
	GetFilter struct {
		ID   string
		Slug string
	}

	ServiceInterface interface {
		CheckUniqueness(slug string) error
		Create(ctx context.Context, no NewOrg) (Org, error)
		CreateTx(ctx context.Context, tx core.DBTransactor, no NewOrg) (Org, error)
		GetByID(ctx context.Context, id string) (Org, error)
		GetBySlug(ctx context.Context, slug string) (Org, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Org, error)
		Update(ctx context.Context, orig Org, uo UpdateOrg) (Org, error)
		Delete(ctx context.Context, ids ...string) error
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

func (svc *service) CheckUniqueness(slug string) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, no NewOrg) (Org, error) {
	return svc.CreateTx(ctx, nil, no)
}

func (svc *service) CreateTx(ctx context.Context, tx core.DBTransactor, no NewOrg) (Org, error) {
	now := time.Now().UTC()
	o := Org{
		Name:      no.Name,
		Slug:      no.Slug,
		Email:     no.Email,
		Phone:     no.Phone,
		Address:   no.Address,
		Timezone:  no.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateOrg(ctx, tx, o)
}

func (svc *service) GetByID(ctx context.Context, id string) (Org, error) {
	return svc.repo.GetOrg(ctx, GetFilter{ID: id})
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Org, error) {
	return svc.repo.GetOrg(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Org, error) {
	return svc.repo.QueryOrgs(ctx, ordering)
}

func (svc *service) Update(ctx context.Context, orig Org, uo UpdateOrg) (Org, error) {
	o := Org{
		ID:        orig.ID,
		Name:      uo.Name,
		Slug:      orig.Slug,
		Email:     uo.Email,
		Phone:     uo.Phone,
		Address:   uo.Address,
		Timezone:  uo.Timezone,
		CreatedAt: orig.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateOrg(ctx, o)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteOrgsByID(ctx, ids)
	return err
}
