package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
)

const groupCols = `id, org_id, name, kind, description, leader_id, is_active, created_at, updated_at`

type groupRow struct {
	ID          string      `db:"id"`
	OrgID       string      `db:"org_id"`
	Name        string      `db:"name"`
	Kind        string      `db:"kind"`
	Description string      `db:"description"`
	LeaderID    null.String `db:"leader_id"`
	IsActive    null.Bool   `db:"is_active"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (r groupRow) unpack() group.Group {
	return group.Group{
		ID:          r.ID,
		OrgID:       r.OrgID,
		Name:        r.Name,
		Kind:        r.Kind,
		Description: r.Description,
		LeaderID:    r.LeaderID.String,
		IsActive:    r.IsActive.Ptr(),
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func packGroup(g group.Group) groupRow {
	return groupRow{
		ID:          g.ID,
		OrgID:       g.OrgID,
		Name:        g.Name,
		Kind:        g.Kind,
		Description: g.Description,
		LeaderID:    null.NewString(g.LeaderID, g.LeaderID != ""),
		IsActive:    null.BoolFromPtr(g.IsActive),
		CreatedAt:   null.NewTime(g.CreatedAt.UTC(), !g.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(g.UpdatedAt.UTC(), !g.UpdatedAt.IsZero()),
	}
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo groupRepository) CheckNameUniqueness(ctx context.Context, orgID, name string) error {
	query, args, err := psql.Select("1").From(`"group"`).
		Where("org_id = ? AND name ILIKE ?", orgID, name).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var exists int
	if err = repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking group name uniqueness")
	}
	return group.ErrNameExists
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	g.ID = uuid.New().String()
	r := packGroup(g)
	query, args, err := psql.Insert(`"group"`).
		Columns("id", "org_id", "name", "kind", "description", "leader_id", "is_active", "created_at", "updated_at").
		Values(r.ID, r.OrgID, r.Name, r.Kind, r.Description, r.LeaderID, r.IsActive, r.CreatedAt, r.UpdatedAt).
		ToSql()
	if err != nil {
		return group.Group{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return g, nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, orgID string, filter *group.QueryFilter, ordering []core.DBOrdering) ([]group.Group, error) {
	qb := psql.Select(groupCols).From(`"group"`).Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			qb = qb.Where(sq.Or{
				sq.Expr("name ILIKE ?", val),
				sq.Expr("description ILIKE ?", val),
			})
		}
		if filter.Kind != "" {
			qb = qb.Where(sq.Eq{"kind": filter.Kind})
		}
		if filter.IsActive != nil {
			qb = qb.Where(sq.Eq{"is_active": *filter.IsActive})
		}
	}

	query, args, err := qb.OrderBy(orderClause(ordering, "name ASC")).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []groupRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.unpack())
	}
	return groups, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, orgID, id string) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}
	query, args, err := psql.Select(groupCols).From(`"group"`).
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return group.Group{}, errors.Wrap(err, "building query")
	}
	var r groupRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "finding group")
	}
	return r.unpack(), nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	r := packGroup(g)
	query, args, err := psql.Update(`"group"`).
		Set("name", r.Name).
		Set("kind", r.Kind).
		Set("description", r.Description).
		Set("leader_id", r.LeaderID).
		Set("is_active", r.IsActive).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"org_id": g.OrgID, "id": g.ID}).
		ToSql()
	if err != nil {
		return group.Group{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return g, nil
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, orgID string, ids []string) (int, error) {
	query, args, err := psql.Delete(`"group"`).Where(sq.Eq{"org_id": orgID, "id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting groups")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo groupRepository) CountGroups(ctx context.Context, orgID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(`"group"`).Where(sq.Eq{"org_id": orgID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting groups")
	}
	return cnt, nil
}

func (repo groupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	query, args, err := psql.Insert("group_member").
		Columns("group_id", "member_id").
		Values(groupID, memberID).
		Suffix("ON CONFLICT (group_id, member_id) DO NOTHING").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "adding group member")
	}
	return nil
}

func (repo groupRepository) RemoveMember(ctx context.Context, groupID, memberID string) error {
	query, args, err := psql.Delete("group_member").
		Where(sq.Eq{"group_id": groupID, "member_id": memberID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "removing group member")
	}
	return nil
}

func (repo groupRepository) QueryGroupMembers(ctx context.Context, groupID string) ([]member.Member, error) {
	query, args, err := psql.Select(memberCols).From("member").
		Where("id IN (SELECT member_id FROM group_member WHERE group_id = ?)", groupID).
		OrderBy("last_name ASC, first_name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []memberRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying group members")
	}
	members := make([]member.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.unpack())
	}
	return members, nil
}

func (repo groupRepository) QueryMemberGroups(ctx context.Context, orgID, memberID string) ([]group.Group, error) {
	query, args, err := psql.Select(groupCols).From(`"group"`).
		Where(sq.Eq{"org_id": orgID}).
		Where("id IN (SELECT group_id FROM group_member WHERE member_id = ?)", memberID).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []groupRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying member groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.unpack())
	}
	return groups, nil
}
