package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
)

type attendanceRepository struct {
	gatherings *gatheringTable
	records    *recordTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{gatherings: db.gathering, records: db.record}
}

func (repo *attendanceRepository) CreateGathering(ctx context.Context, g attendance.Gathering) (attendance.Gathering, error) {
	repo.gatherings.mutex.Lock()
	defer repo.gatherings.mutex.Unlock()

	g.ID = uuid.New().String()
	repo.gatherings.table[g.ID] = &g
	return g, nil
}

func matchGathering(g attendance.Gathering, filter *attendance.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Kind != "" && g.Kind != filter.Kind {
		return false
	}
	if !filter.From.IsZero() && g.StartsAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && g.StartsAt.After(filter.To) {
		return false
	}
	return true
}

func (repo *attendanceRepository) QueryGatherings(ctx context.Context, orgID string, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Gathering, error) {
	repo.gatherings.mutex.RLock()
	defer repo.gatherings.mutex.RUnlock()

	gatherings := make([]attendance.Gathering, 0)
	for _, g := range repo.gatherings.table {
		if g.OrgID != orgID {
			continue
		}
		if matchGathering(*g, filter) {
			gatherings = append(gatherings, *g)
		}
	}
	sort.Slice(gatherings, func(i, j int) bool { return gatherings[i].StartsAt.After(gatherings[j].StartsAt) })
	return gatherings, nil
}

func (repo *attendanceRepository) GetGathering(ctx context.Context, orgID, id string) (attendance.Gathering, error) {
	repo.gatherings.mutex.RLock()
	defer repo.gatherings.mutex.RUnlock()

	if g, ok := repo.gatherings.table[id]; ok && g.OrgID == orgID {
		return *g, nil
	}
	return attendance.Gathering{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateGathering(ctx context.Context, g attendance.Gathering) (attendance.Gathering, error) {
	repo.gatherings.mutex.Lock()
	defer repo.gatherings.mutex.Unlock()

	if orig, ok := repo.gatherings.table[g.ID]; !ok || orig.OrgID != g.OrgID {
		return attendance.Gathering{}, attendance.ErrNotFound
	}
	repo.gatherings.table[g.ID] = &g
	return g, nil
}

func (repo *attendanceRepository) DeleteGatheringsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	repo.gatherings.mutex.Lock()
	defer repo.gatherings.mutex.Unlock()
	repo.records.mutex.Lock()
	defer repo.records.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if g, ok := repo.gatherings.table[id]; ok && g.OrgID == orgID {
			delete(repo.gatherings.table, id)
			for rid, rec := range repo.records.table {
				if rec.GatheringID == id {
					delete(repo.records.table, rid)
				}
			}
			cnt++
		}
	}
	return cnt, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.records.mutex.Lock()
	defer repo.records.mutex.Unlock()

	for _, r := range repo.records.table {
		if r.GatheringID == rec.GatheringID && r.MemberID == rec.MemberID {
			r.Present = rec.Present
			r.RecordedAt = rec.RecordedAt
			return *r, nil
		}
	}
	rec.ID = uuid.New().String()
	repo.records.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryGatheringRecords(ctx context.Context, gatheringID string) ([]attendance.Record, error) {
	repo.records.mutex.RLock()
	defer repo.records.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, r := range repo.records.table {
		if r.GatheringID == gatheringID {
			recs = append(recs, *r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RecordedAt.Before(recs[j].RecordedAt) })
	return recs, nil
}

func (repo *attendanceRepository) QueryMemberRecords(ctx context.Context, orgID, memberID string, from, to time.Time) ([]attendance.Record, error) {
	repo.gatherings.mutex.RLock()
	defer repo.gatherings.mutex.RUnlock()
	repo.records.mutex.RLock()
	defer repo.records.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, r := range repo.records.table {
		if r.OrgID != orgID || r.MemberID != memberID {
			continue
		}
		g, ok := repo.gatherings.table[r.GatheringID]
		if !ok {
			continue
		}
		if !from.IsZero() && g.StartsAt.Before(from) {
			continue
		}
		if !to.IsZero() && g.StartsAt.After(to) {
			continue
		}
		recs = append(recs, *r)
	}
	sort.Slice(recs, func(i, j int) bool {
		gi := repo.gatherings.table[recs[i].GatheringID]
		gj := repo.gatherings.table[recs[j].GatheringID]
		return gi.StartsAt.After(gj.StartsAt)
	})
	return recs, nil
}

func (repo *attendanceRepository) QueryTotals(ctx context.Context, orgID string, from, to time.Time) ([]attendance.GatheringTotal, error) {
	repo.gatherings.mutex.RLock()
	defer repo.gatherings.mutex.RUnlock()
	repo.records.mutex.RLock()
	defer repo.records.mutex.RUnlock()

	present := make(map[string]int)
	for _, r := range repo.records.table {
		if r.Present {
			present[r.GatheringID]++
		}
	}

	totals := make([]attendance.GatheringTotal, 0)
	for _, g := range repo.gatherings.table {
		if g.OrgID != orgID {
			continue
		}
		if !from.IsZero() && g.StartsAt.Before(from) {
			continue
		}
		if !to.IsZero() && g.StartsAt.After(to) {
			continue
		}
		totals = append(totals, attendance.GatheringTotal{
			GatheringID: g.ID,
			Name:        g.Name,
			Kind:        g.Kind,
			StartsAt:    g.StartsAt,
			Present:     present[g.ID],
			Visitors:    g.VisitorCount,
			Children:    g.ChildrenCount,
		})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].StartsAt.Before(totals[j].StartsAt) })
	return totals, nil
}
