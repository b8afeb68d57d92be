package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
)

type orgRepository struct {
	db *orgTable
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) query() []org.Org {
	orgs := make([]org.Org, 0, len(repo.db.table))
	for _, o := range repo.db.table {
		orgs = append(orgs, *o)
	}
	return orgs
}

func (repo *orgRepository) CheckSlugUniqueness(ctx context.Context, slug string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, o := range repo.db.table {
		if strings.EqualFold(o.Slug, slug) {
			return org.ErrSlugExists
		}
	}
	return nil
}

func (repo *orgRepository) CreateOrg(ctx context.Context, tx core.DBTransactor, o org.Org) (org.Org, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o.ID = uuid.New().String()
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrg(ctx context.Context, filter org.GetFilter) (org.Org, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if o, ok := repo.db.table[filter.ID]; ok {
			return *o, nil
		}
	case filter.Slug != "":
		for _, o := range repo.db.table {
			if strings.EqualFold(o.Slug, filter.Slug) {
				return *o, nil
			}
		}
	}
	return org.Org{}, org.ErrNotFound
}

func (repo *orgRepository) QueryOrgs(ctx context.Context, ordering []core.DBOrdering) ([]org.Org, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	orgs := repo.query()
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (repo *orgRepository) UpdateOrg(ctx context.Context, o org.Org) (org.Org, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[o.ID]; !ok {
		return org.Org{}, org.ErrNotFound
	}
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) DeleteOrgsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
