package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/followup"
)

type followUpRepository struct {
	db *followUpTable
}

var _ followup.Repository = (*followUpRepository)(nil) // interface compliance check

func NewFollowUpRepository(db *DB) *followUpRepository {
	return &followUpRepository{db: db.followUp}
}

func (repo *followUpRepository) CreateFollowUp(ctx context.Context, f followup.FollowUp) (followup.FollowUp, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f.ID = uuid.New().String()
	repo.db.table[f.ID] = &f
	return f, nil
}

func matchFollowUp(f followup.FollowUp, filter *followup.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.MemberID != "" && f.MemberID != filter.MemberID {
		return false
	}
	if filter.AssigneeID != "" && f.AssigneeID != filter.AssigneeID {
		return false
	}
	if filter.Kind != "" && f.Kind != filter.Kind {
		return false
	}
	if filter.Status != "" && f.Status != filter.Status {
		return false
	}
	if !filter.DueFrom.IsZero() && (f.DueAt.IsZero() || f.DueAt.Before(filter.DueFrom)) {
		return false
	}
	if !filter.DueTo.IsZero() && (f.DueAt.IsZero() || f.DueAt.After(filter.DueTo)) {
		return false
	}
	return true
}

func (repo *followUpRepository) QueryFollowUps(ctx context.Context, orgID string, filter *followup.QueryFilter, ordering []core.DBOrdering) ([]followup.FollowUp, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fups := make([]followup.FollowUp, 0)
	for _, f := range repo.db.table {
		if f.OrgID != orgID {
			continue
		}
		if matchFollowUp(*f, filter) {
			fups = append(fups, *f)
		}
	}
	// due date order, undated ones last
	sort.Slice(fups, func(i, j int) bool {
		di, dj := fups[i].DueAt, fups[j].DueAt
		switch {
		case di.IsZero():
			return false
		case dj.IsZero():
			return true
		default:
			return di.Before(dj)
		}
	})
	return fups, nil
}

func (repo *followUpRepository) GetFollowUp(ctx context.Context, orgID, id string) (followup.FollowUp, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.table[id]; ok && f.OrgID == orgID {
		return *f, nil
	}
	return followup.FollowUp{}, followup.ErrNotFound
}

func (repo *followUpRepository) UpdateFollowUp(ctx context.Context, f followup.FollowUp) (followup.FollowUp, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.table[f.ID]; !ok || orig.OrgID != f.OrgID {
		return followup.FollowUp{}, followup.ErrNotFound
	}
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *followUpRepository) DeleteFollowUpsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if f, ok := repo.db.table[id]; ok && f.OrgID == orgID {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *followUpRepository) CloseOpenByMember(ctx context.Context, orgID, memberID string, completedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, f := range repo.db.table {
		if f.OrgID == orgID && f.MemberID == memberID && f.IsOpen() {
			f.Status = followup.StatusDone
			f.CompletedAt = completedAt
			f.UpdatedAt = completedAt
		}
	}
	return nil
}

func (repo *followUpRepository) CountOpen(ctx context.Context, orgID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, f := range repo.db.table {
		if f.OrgID == orgID && f.IsOpen() {
			cnt++
		}
	}
	return cnt, nil
}
