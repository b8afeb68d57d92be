package report

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
)

var NowFunc = time.Now // mockable

type (
	ServiceInterface interface {
		Dashboard(ctx context.Context, orgID string, rf RangeFilter) (Summary, error)
		AttendanceTrend(ctx context.Context, orgID string, rf RangeFilter) (Trend, error)
		MemberGrowth(ctx context.Context, orgID string, months int) ([]GrowthPoint, error)
	}

	service struct {
		mbrRepo member.Repository
		grpRepo group.Repository
		fupRepo followup.Repository
		mbrSvc  member.ServiceInterface
		attSvc  attendance.ServiceInterface
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	mbrRepo member.Repository,
	grpRepo group.Repository,
	fupRepo followup.Repository,
	mbrSvc member.ServiceInterface,
	attSvc attendance.ServiceInterface,
	conf *core.Config,
) ServiceInterface {
	return &service{
		mbrRepo: mbrRepo,
		grpRepo: grpRepo,
		fupRepo: fupRepo,
		mbrSvc:  mbrSvc,
		attSvc:  attSvc,
		conf:    conf,
	}
}

func (svc *service) Dashboard(ctx context.Context, orgID string, rf RangeFilter) (Summary, error) {
	now := NowFunc().UTC()
	rf.Normalize(now)

	var s Summary
	var err error

	if s.Members, err = svc.mbrRepo.CountMembers(ctx, orgID, member.StatusMember); err != nil {
		return Summary{}, errors.Wrap(err, "counting members")
	}
	if s.Visitors, err = svc.mbrRepo.CountMembers(ctx, orgID, member.StatusVisitor); err != nil {
		return Summary{}, errors.Wrap(err, "counting visitors")
	}
	if s.Groups, err = svc.grpRepo.CountGroups(ctx, orgID); err != nil {
		return Summary{}, errors.Wrap(err, "counting groups")
	}
	if s.PendingFollowUps, err = svc.fupRepo.CountOpen(ctx, orgID); err != nil {
		return Summary{}, errors.Wrap(err, "counting open follow-ups")
	}

	joined, err := svc.mbrRepo.QueryMembers(ctx, orgID, &member.QueryFilter{
		Status:     member.StatusMember,
		JoinedFrom: rf.From,
		JoinedTo:   rf.To,
	}, nil)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying new members")
	}
	s.NewMembers = len(joined)

	att, err := svc.attSvc.Summarize(ctx, orgID, rf.From, rf.To)
	if err != nil {
		return Summary{}, errors.Wrap(err, "summarizing attendance")
	}
	s.AttendanceAverage = att.Average

	bdays, err := svc.mbrSvc.BirthdaysInMonth(ctx, orgID, now.Month())
	if err != nil {
		return Summary{}, errors.Wrap(err, "listing birthdays")
	}
	s.BirthdaysThisMonth = len(bdays)

	return s, nil
}

func (svc *service) AttendanceTrend(ctx context.Context, orgID string, rf RangeFilter) (Trend, error) {
	rf.Normalize(NowFunc().UTC())
	return svc.attSvc.Summarize(ctx, orgID, rf.From, rf.To)
}

// maxGrowthMonths caps the trailing window; one point is allocated per month.
const maxGrowthMonths = 120

// MemberGrowth buckets member joins per month over a trailing window,
// including empty months so charts get a continuous axis.
func (svc *service) MemberGrowth(ctx context.Context, orgID string, months int) ([]GrowthPoint, error) {
	if months <= 0 {
		months = 12
	}
	if months > maxGrowthMonths {
		months = maxGrowthMonths
	}
	now := NowFunc().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	members, err := svc.mbrRepo.QueryMembers(ctx, orgID, &member.QueryFilter{
		Status:     member.StatusMember,
		JoinedFrom: from,
		JoinedTo:   now,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return bucketByMonth(members, from, months), nil
}

func bucketByMonth(members []member.Member, from time.Time, months int) []GrowthPoint {
	buckets := make(map[string]int, months)
	for _, m := range members {
		if m.JoinedAt.IsZero() {
			continue
		}
		buckets[m.JoinedAt.UTC().Format("2006-01")]++
	}

	points := make([]GrowthPoint, 0, months)
	for i := 0; i < months; i++ {
		month := from.AddDate(0, i, 0).Format("2006-01")
		points = append(points, GrowthPoint{Month: month, Joined: buckets[month]})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	return points
}
