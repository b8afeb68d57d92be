package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
)

type groupRepository struct {
	db     *groupTable
	member *memberTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db.group, member: db.member}
}

func (repo *groupRepository) query() []group.Group {
	groups := make([]group.Group, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		groups = append(groups, *g)
	}
	return groups
}

func (repo *groupRepository) CheckNameUniqueness(ctx context.Context, orgID, name string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, g := range repo.db.table {
		if g.OrgID == orgID && strings.EqualFold(g.Name, name) {
			return group.ErrNameExists
		}
	}
	return nil
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = uuid.New().String()
	repo.db.table[g.ID] = &g
	repo.db.members[g.ID] = make(map[string]bool)
	return g, nil
}

func matchGroup(g group.Group, filter *group.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(g.Name), s) &&
			!strings.Contains(strings.ToLower(g.Description), s) {
			return false
		}
	}
	if filter.Kind != "" && g.Kind != filter.Kind {
		return false
	}
	if filter.IsActive != nil && g.Active() != *filter.IsActive {
		return false
	}
	return true
}

func (repo *groupRepository) QueryGroups(ctx context.Context, orgID string, filter *group.QueryFilter, ordering []core.DBOrdering) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0)
	for _, g := range repo.query() {
		if g.OrgID != orgID {
			continue
		}
		if matchGroup(g, filter) {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, orgID, id string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.table[id]; ok && g.OrgID == orgID {
		return *g, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.table[g.ID]; !ok || orig.OrgID != g.OrgID {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if g, ok := repo.db.table[id]; ok && g.OrgID == orgID {
			delete(repo.db.table, id)
			delete(repo.db.members, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *groupRepository) CountGroups(ctx context.Context, orgID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, g := range repo.db.table {
		if g.OrgID == orgID {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *groupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.members[groupID] == nil {
		repo.db.members[groupID] = make(map[string]bool)
	}
	repo.db.members[groupID][memberID] = true
	return nil
}

func (repo *groupRepository) RemoveMember(ctx context.Context, groupID, memberID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.members[groupID], memberID)
	return nil
}

func (repo *groupRepository) QueryGroupMembers(ctx context.Context, groupID string) ([]member.Member, error) {
	repo.db.mutex.RLock()
	memberIDs := make([]string, 0, len(repo.db.members[groupID]))
	for id := range repo.db.members[groupID] {
		memberIDs = append(memberIDs, id)
	}
	repo.db.mutex.RUnlock()

	repo.member.mutex.RLock()
	defer repo.member.mutex.RUnlock()

	members := make([]member.Member, 0, len(memberIDs))
	for _, id := range memberIDs {
		if m, ok := repo.member.table[id]; ok {
			members = append(members, *m)
		}
	}
	sortMembers(members)
	return members, nil
}

func (repo *groupRepository) QueryMemberGroups(ctx context.Context, orgID, memberID string) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0)
	for id, memberSet := range repo.db.members {
		if !memberSet[memberID] {
			continue
		}
		if g, ok := repo.db.table[id]; ok && g.OrgID == orgID {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}
