package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/member"
)

type memberRepository struct {
	db    *memberTable
	group *groupTable
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) *memberRepository {
	return &memberRepository{db: db.member, group: db.group}
}

func (repo *memberRepository) query() []member.Member {
	members := make([]member.Member, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		members = append(members, *m)
	}
	return members
}

func (repo *memberRepository) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *memberRepository) matchMember(m member.Member, filter *member.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(m.FullName()), s) &&
			!strings.Contains(strings.ToLower(m.Email), s) &&
			!strings.Contains(strings.ToLower(m.Phone), s) {
			return false
		}
	}
	if filter.Status != "" && m.Status != filter.Status {
		return false
	}
	if filter.Gender != "" && m.Gender != filter.Gender {
		return false
	}
	if filter.GroupID != "" {
		repo.group.mutex.RLock()
		inGroup := repo.group.members[filter.GroupID][m.ID]
		repo.group.mutex.RUnlock()
		if !inGroup {
			return false
		}
	}
	if filter.IsActive != nil && m.Active() != *filter.IsActive {
		return false
	}
	if !filter.JoinedFrom.IsZero() && (m.JoinedAt.IsZero() || m.JoinedAt.Before(filter.JoinedFrom)) {
		return false
	}
	if !filter.JoinedTo.IsZero() && (m.JoinedAt.IsZero() || m.JoinedAt.After(filter.JoinedTo)) {
		return false
	}
	if filter.HasBirthDate && m.BirthDate.IsZero() {
		return false
	}
	return true
}

func (repo *memberRepository) QueryMembers(ctx context.Context, orgID string, filter *member.QueryFilter, ordering []core.DBOrdering) ([]member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make([]member.Member, 0)
	for _, m := range repo.query() {
		if m.OrgID != orgID {
			continue
		}
		if repo.matchMember(m, filter) {
			members = append(members, m)
		}
	}
	sortMembers(members)
	return members, nil
}

func sortMembers(members []member.Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].LastName != members[j].LastName {
			return members[i].LastName < members[j].LastName
		}
		return members[i].FirstName < members[j].FirstName
	})
}

func (repo *memberRepository) GetMember(ctx context.Context, orgID, id string) (member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.table[id]; ok && m.OrgID == orgID {
		return *m, nil
	}
	return member.Member{}, member.ErrNotFound
}

func (repo *memberRepository) UpdateMember(ctx context.Context, m member.Member) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.table[m.ID]; !ok || orig.OrgID != m.OrgID {
		return member.Member{}, member.ErrNotFound
	}
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *memberRepository) DeleteMembersByID(ctx context.Context, orgID string, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if m, ok := repo.db.table[id]; ok && m.OrgID == orgID {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *memberRepository) CountMembers(ctx context.Context, orgID, status string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, m := range repo.db.table {
		if m.OrgID != orgID {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		cnt++
	}
	return cnt, nil
}
