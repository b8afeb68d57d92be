package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
)

const gatheringCols = `id, org_id, name, kind, starts_at, notes, visitor_count, children_count, created_at, updated_at`

type gatheringRow struct {
	ID            string    `db:"id"`
	OrgID         string    `db:"org_id"`
	Name          string    `db:"name"`
	Kind          string    `db:"kind"`
	StartsAt      time.Time `db:"starts_at"`
	Notes         string    `db:"notes"`
	VisitorCount  int       `db:"visitor_count"`
	ChildrenCount int       `db:"children_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type recordRow struct {
	ID          string    `db:"id"`
	OrgID       string    `db:"org_id"`
	GatheringID string    `db:"gathering_id"`
	MemberID    string    `db:"member_id"`
	Present     bool      `db:"present"`
	RecordedAt  time.Time `db:"recorded_at"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateGathering(ctx context.Context, g attendance.Gathering) (attendance.Gathering, error) {
	g.ID = uuid.New().String()
	query, args, err := psql.Insert("gathering").
		Columns("id", "org_id", "name", "kind", "starts_at", "notes", "visitor_count", "children_count", "created_at", "updated_at").
		Values(g.ID, g.OrgID, g.Name, g.Kind, g.StartsAt.UTC(), g.Notes, g.VisitorCount, g.ChildrenCount, g.CreatedAt.UTC(), g.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return attendance.Gathering{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return attendance.Gathering{}, errors.Wrap(err, "inserting gathering")
	}
	return g, nil
}

func (repo attendanceRepository) QueryGatherings(ctx context.Context, orgID string, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Gathering, error) {
	qb := psql.Select(gatheringCols).From("gathering").Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		if filter.Kind != "" {
			qb = qb.Where(sq.Eq{"kind": filter.Kind})
		}
		if !filter.From.IsZero() {
			qb = qb.Where(sq.GtOrEq{"starts_at": filter.From.UTC()})
		}
		if !filter.To.IsZero() {
			qb = qb.Where(sq.LtOrEq{"starts_at": filter.To.UTC()})
		}
	}

	query, args, err := qb.OrderBy(orderClause(ordering, "starts_at DESC")).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []gatheringRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying gatherings")
	}
	gatherings := make([]attendance.Gathering, 0, len(rows))
	for _, r := range rows {
		gatherings = append(gatherings, attendance.Gathering(r))
	}
	return gatherings, nil
}

func (repo attendanceRepository) GetGathering(ctx context.Context, orgID, id string) (attendance.Gathering, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Gathering{}, attendance.ErrNotFound
	}
	query, args, err := psql.Select(gatheringCols).From("gathering").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return attendance.Gathering{}, errors.Wrap(err, "building query")
	}
	var r gatheringRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return attendance.Gathering{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding gathering")
	}
	return attendance.Gathering(r), nil
}

func (repo attendanceRepository) UpdateGathering(ctx context.Context, g attendance.Gathering) (attendance.Gathering, error) {
	query, args, err := psql.Update("gathering").
		Set("name", g.Name).
		Set("kind", g.Kind).
		Set("starts_at", g.StartsAt.UTC()).
		Set("notes", g.Notes).
		Set("visitor_count", g.VisitorCount).
		Set("children_count", g.ChildrenCount).
		Set("updated_at", g.UpdatedAt.UTC()).
		Where(sq.Eq{"org_id": g.OrgID, "id": g.ID}).
		ToSql()
	if err != nil {
		return attendance.Gathering{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return attendance.Gathering{}, errors.Wrap(err, "updating gathering")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return attendance.Gathering{}, attendance.ErrNotFound
	}
	return g, nil
}

func (repo attendanceRepository) DeleteGatheringsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	query, args, err := psql.Delete("gathering").Where(sq.Eq{"org_id": orgID, "id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting gatherings")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	// on conflict the stored row keeps its original id; RETURNING hands it back
	query, args, err := psql.Insert("attendance_record").
		Columns("id", "org_id", "gathering_id", "member_id", "present", "recorded_at").
		Values(uuid.New().String(), rec.OrgID, rec.GatheringID, rec.MemberID, rec.Present, rec.RecordedAt.UTC()).
		Suffix("ON CONFLICT (gathering_id, member_id) DO UPDATE SET present = EXCLUDED.present, recorded_at = EXCLUDED.recorded_at RETURNING id, recorded_at").
		ToSql()
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "building query")
	}
	var row struct {
		ID         string    `db:"id"`
		RecordedAt time.Time `db:"recorded_at"`
	}
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	rec.ID = row.ID
	rec.RecordedAt = row.RecordedAt
	return rec, nil
}

func (repo attendanceRepository) QueryGatheringRecords(ctx context.Context, gatheringID string) ([]attendance.Record, error) {
	query, args, err := psql.Select("id, org_id, gathering_id, member_id, present, recorded_at").
		From("attendance_record").
		Where(sq.Eq{"gathering_id": gatheringID}).
		OrderBy("recorded_at ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []recordRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying gathering records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, attendance.Record(r))
	}
	return recs, nil
}

func (repo attendanceRepository) QueryMemberRecords(ctx context.Context, orgID, memberID string, from, to time.Time) ([]attendance.Record, error) {
	qb := psql.Select("r.id, r.org_id, r.gathering_id, r.member_id, r.present, r.recorded_at").
		From("attendance_record r").
		Join("gathering g ON g.id = r.gathering_id").
		Where(sq.Eq{"r.org_id": orgID, "r.member_id": memberID})
	if !from.IsZero() {
		qb = qb.Where(sq.GtOrEq{"g.starts_at": from.UTC()})
	}
	if !to.IsZero() {
		qb = qb.Where(sq.LtOrEq{"g.starts_at": to.UTC()})
	}
	query, args, err := qb.OrderBy("g.starts_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []recordRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying member records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, attendance.Record(r))
	}
	return recs, nil
}

func (repo attendanceRepository) QueryTotals(ctx context.Context, orgID string, from, to time.Time) ([]attendance.GatheringTotal, error) {
	qb := psql.Select(`g.id AS gathering_id, g.name, g.kind, g.starts_at,
		COUNT(r.id) FILTER (WHERE r.present) AS present,
		g.visitor_count AS visitors, g.children_count AS children`).
		From("gathering g").
		LeftJoin("attendance_record r ON r.gathering_id = g.id").
		Where(sq.Eq{"g.org_id": orgID})
	if !from.IsZero() {
		qb = qb.Where(sq.GtOrEq{"g.starts_at": from.UTC()})
	}
	if !to.IsZero() {
		qb = qb.Where(sq.LtOrEq{"g.starts_at": to.UTC()})
	}
	query, args, err := qb.
		GroupBy("g.id", "g.name", "g.kind", "g.starts_at", "g.visitor_count", "g.children_count").
		OrderBy("g.starts_at ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []struct {
		GatheringID string    `db:"gathering_id"`
		Name        string    `db:"name"`
		Kind        string    `db:"kind"`
		StartsAt    time.Time `db:"starts_at"`
		Present     int       `db:"present"`
		Visitors    int       `db:"visitors"`
		Children    int       `db:"children"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance totals")
	}
	totals := make([]attendance.GatheringTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, attendance.GatheringTotal(r))
	}
	return totals, nil
}
