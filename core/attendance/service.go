package attendance

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
)

var (
	// errors
	ErrNotFound = errors.New("gathering not found")
)

type (
	Repository interface {
		CreateGathering(ctx context.Context, g Gathering) (Gathering, error)
		QueryGatherings(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Gathering, error)
		GetGathering(ctx context.Context, orgID, id string) (Gathering, error)
		UpdateGathering(ctx context.Context, g Gathering) (Gathering, error)
		DeleteGatheringsByID(ctx context.Context, orgID string, ids []string) (int, error)

		// UpsertRecord inserts or refreshes the (gathering, member) mark.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		QueryGatheringRecords(ctx context.Context, gatheringID string) ([]Record, error)
		QueryMemberRecords(ctx context.Context, orgID, memberID string, from, to time.Time) ([]Record, error)
		// QueryTotals rolls up present counts per gathering in the range.
		QueryTotals(ctx context.Context, orgID string, from, to time.Time) ([]GatheringTotal, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, orgID string, ng NewGathering) (Gathering, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Gathering, error)
		GetByID(ctx context.Context, orgID, id string) (Gathering, error)
		Update(ctx context.Context, orig Gathering, ug UpdateGathering) (Gathering, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
		Record(ctx context.Context, g Gathering, marks []MarkAttendance) ([]Record, error)
		GatheringRecords(ctx context.Context, g Gathering) ([]Record, error)
		MemberHistory(ctx context.Context, orgID, memberID string, from, to time.Time) ([]Record, error)
		Summarize(ctx context.Context, orgID string, from, to time.Time) (Summary, error)
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

func (svc *service) Create(ctx context.Context, orgID string, ng NewGathering) (Gathering, error) {
	now := time.Now().UTC()
	g := Gathering{
		OrgID:         orgID,
		Name:          ng.Name,
		Kind:          ng.Kind,
		StartsAt:      ng.StartsAt.UTC(),
		Notes:         ng.Notes,
		VisitorCount:  ng.VisitorCount,
		ChildrenCount: ng.ChildrenCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateGathering(ctx, g)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Gathering, error) {
	return svc.repo.QueryGatherings(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (Gathering, error) {
	return svc.repo.GetGathering(ctx, orgID, id)
}

func (svc *service) Update(ctx context.Context, orig Gathering, ug UpdateGathering) (Gathering, error) {
	g := Gathering{
		ID:            orig.ID,
		OrgID:         orig.OrgID,
		Name:          ug.Name,
		Kind:          ug.Kind,
		StartsAt:      ug.StartsAt.UTC(),
		Notes:         ug.Notes,
		VisitorCount:  *ug.VisitorCount,
		ChildrenCount: *ug.ChildrenCount,
		CreatedAt:     orig.CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateGathering(ctx, g)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	_, err := svc.repo.DeleteGatheringsByID(ctx, orgID, ids)
	return err
}

func (svc *service) Record(ctx context.Context, g Gathering, marks []MarkAttendance) ([]Record, error) {
	now := time.Now().UTC()
	records := make([]Record, 0, len(marks))
	for _, mark := range marks {
		rec, err := svc.repo.UpsertRecord(ctx, Record{
			OrgID:       g.OrgID,
			GatheringID: g.ID,
			MemberID:    mark.MemberID,
			Present:     mark.Present,
			RecordedAt:  now,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "recording attendance for member %s", mark.MemberID)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (svc *service) GatheringRecords(ctx context.Context, g Gathering) ([]Record, error) {
	return svc.repo.QueryGatheringRecords(ctx, g.ID)
}

func (svc *service) MemberHistory(ctx context.Context, orgID, memberID string, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryMemberRecords(ctx, orgID, memberID, from, to)
}

func (svc *service) Summarize(ctx context.Context, orgID string, from, to time.Time) (Summary, error) {
	totals, err := svc.repo.QueryTotals(ctx, orgID, from, to)
	if err != nil {
		return Summary{}, err
	}
	return summarize(totals), nil
}

func summarize(totals []GatheringTotal) Summary {
	sort.Slice(totals, func(i, j int) bool { return totals[i].StartsAt.Before(totals[j].StartsAt) })

	s := Summary{Gatherings: len(totals), Series: totals}
	if s.Series == nil {
		s.Series = []GatheringTotal{}
	}
	for _, gt := range totals {
		s.Present += gt.Present
		s.Visitors += gt.Visitors
		s.Children += gt.Children
	}
	if len(totals) > 0 {
		avg := float64(s.Present+s.Visitors+s.Children) / float64(len(totals))
		s.Average = math.Round(avg*100) / 100
	}
	return s
}
