package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/followup"
)

const followUpCols = `id, org_id, member_id, assignee_id, kind, status, due_at, notes, completed_at, created_at, updated_at`

type followUpRow struct {
	ID          string      `db:"id"`
	OrgID       string      `db:"org_id"`
	MemberID    string      `db:"member_id"`
	AssigneeID  null.String `db:"assignee_id"`
	Kind        string      `db:"kind"`
	Status      string      `db:"status"`
	DueAt       null.Time   `db:"due_at"`
	Notes       string      `db:"notes"`
	CompletedAt null.Time   `db:"completed_at"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r followUpRow) unpack() followup.FollowUp {
	return followup.FollowUp{
		ID:          r.ID,
		OrgID:       r.OrgID,
		MemberID:    r.MemberID,
		AssigneeID:  r.AssigneeID.String,
		Kind:        r.Kind,
		Status:      r.Status,
		DueAt:       r.DueAt.Time,
		Notes:       r.Notes,
		CompletedAt: r.CompletedAt.Time,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func packFollowUp(f followup.FollowUp) followUpRow {
	return followUpRow{
		ID:          f.ID,
		OrgID:       f.OrgID,
		MemberID:    f.MemberID,
		AssigneeID:  null.NewString(f.AssigneeID, f.AssigneeID != ""),
		Kind:        f.Kind,
		Status:      f.Status,
		DueAt:       null.NewTime(f.DueAt.UTC(), !f.DueAt.IsZero()),
		Notes:       f.Notes,
		CompletedAt: null.NewTime(f.CompletedAt.UTC(), !f.CompletedAt.IsZero()),
		CreatedAt:   f.CreatedAt.UTC(),
		UpdatedAt:   f.UpdatedAt.UTC(),
	}
}

type followUpRepository struct {
	db *sqlx.DB
}

var _ followup.Repository = (*followUpRepository)(nil) // interface compliance check

func NewFollowUpRepository(db *sqlx.DB) *followUpRepository {
	return &followUpRepository{db: db}
}

func (repo followUpRepository) CreateFollowUp(ctx context.Context, f followup.FollowUp) (followup.FollowUp, error) {
	f.ID = uuid.New().String()
	r := packFollowUp(f)
	query, args, err := psql.Insert("follow_up").
		Columns("id", "org_id", "member_id", "assignee_id", "kind", "status", "due_at", "notes", "completed_at", "created_at", "updated_at").
		Values(r.ID, r.OrgID, r.MemberID, r.AssigneeID, r.Kind, r.Status, r.DueAt, r.Notes, r.CompletedAt, r.CreatedAt, r.UpdatedAt).
		ToSql()
	if err != nil {
		return followup.FollowUp{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return followup.FollowUp{}, errors.Wrap(err, "inserting follow-up")
	}
	return f, nil
}

func (repo followUpRepository) QueryFollowUps(ctx context.Context, orgID string, filter *followup.QueryFilter, ordering []core.DBOrdering) ([]followup.FollowUp, error) {
	qb := psql.Select(followUpCols).From("follow_up").Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		// malformed ids match no row
		if filter.MemberID != "" {
			if _, err := uuid.Parse(filter.MemberID); err != nil {
				return []followup.FollowUp{}, nil
			}
			qb = qb.Where(sq.Eq{"member_id": filter.MemberID})
		}
		if filter.AssigneeID != "" {
			if _, err := uuid.Parse(filter.AssigneeID); err != nil {
				return []followup.FollowUp{}, nil
			}
			qb = qb.Where(sq.Eq{"assignee_id": filter.AssigneeID})
		}
		if filter.Kind != "" {
			qb = qb.Where(sq.Eq{"kind": filter.Kind})
		}
		if filter.Status != "" {
			qb = qb.Where(sq.Eq{"status": filter.Status})
		}
		if !filter.DueFrom.IsZero() {
			qb = qb.Where(sq.GtOrEq{"due_at": filter.DueFrom.UTC()})
		}
		if !filter.DueTo.IsZero() {
			qb = qb.Where(sq.LtOrEq{"due_at": filter.DueTo.UTC()})
		}
	}

	query, args, err := qb.OrderBy(orderClause(ordering, "due_at ASC NULLS LAST, created_at DESC")).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []followUpRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying follow-ups")
	}
	fups := make([]followup.FollowUp, 0, len(rows))
	for _, r := range rows {
		fups = append(fups, r.unpack())
	}
	return fups, nil
}

func (repo followUpRepository) GetFollowUp(ctx context.Context, orgID, id string) (followup.FollowUp, error) {
	if _, err := uuid.Parse(id); err != nil {
		return followup.FollowUp{}, followup.ErrNotFound
	}
	query, args, err := psql.Select(followUpCols).From("follow_up").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return followup.FollowUp{}, errors.Wrap(err, "building query")
	}
	var r followUpRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return followup.FollowUp{}, trapNoRowsErr(err, followup.ErrNotFound, "finding follow-up")
	}
	return r.unpack(), nil
}

func (repo followUpRepository) UpdateFollowUp(ctx context.Context, f followup.FollowUp) (followup.FollowUp, error) {
	r := packFollowUp(f)
	query, args, err := psql.Update("follow_up").
		Set("assignee_id", r.AssigneeID).
		Set("kind", r.Kind).
		Set("status", r.Status).
		Set("due_at", r.DueAt).
		Set("notes", r.Notes).
		Set("completed_at", r.CompletedAt).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"org_id": f.OrgID, "id": f.ID}).
		ToSql()
	if err != nil {
		return followup.FollowUp{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return followup.FollowUp{}, errors.Wrap(err, "updating follow-up")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return followup.FollowUp{}, followup.ErrNotFound
	}
	return f, nil
}

func (repo followUpRepository) DeleteFollowUpsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	query, args, err := psql.Delete("follow_up").Where(sq.Eq{"org_id": orgID, "id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting follow-ups")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo followUpRepository) CloseOpenByMember(ctx context.Context, orgID, memberID string, completedAt time.Time) error {
	query, args, err := psql.Update("follow_up").
		Set("status", followup.StatusDone).
		Set("completed_at", completedAt.UTC()).
		Set("updated_at", completedAt.UTC()).
		Where(sq.Eq{"org_id": orgID, "member_id": memberID}).
		Where(sq.NotEq{"status": followup.StatusDone}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "closing open follow-ups")
	}
	return nil
}

func (repo followUpRepository) CountOpen(ctx context.Context, orgID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("follow_up").
		Where(sq.Eq{"org_id": orgID}).
		Where(sq.NotEq{"status": followup.StatusDone}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting open follow-ups")
	}
	return cnt, nil
}
