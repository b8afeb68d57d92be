package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
)

const orgCols = `id, name, slug, email, phone, address, timezone, created_at, updated_at`

type orgRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	Timezone  string    `db:"timezone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r orgRow) unpack() org.Org {
	return org.Org(r)
}

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sqlx.DB) *orgRepository {
	return &orgRepository{db: db}
}

func (repo orgRepository) CheckSlugUniqueness(ctx context.Context, slug string) error {
	query, args, err := psql.Select("1").From("org").Where(sq.Eq{"slug": slug}).Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var one int
	if err = repo.db.GetContext(ctx, &one, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking org uniqueness")
	}
	return org.ErrSlugExists
}

func (repo orgRepository) CreateOrg(ctx context.Context, tx core.DBTransactor, o org.Org) (org.Org, error) {
	o.ID = uuid.New().String()
	query, args, err := psql.Insert("org").
		Columns("id", "name", "slug", "email", "phone", "address", "timezone", "created_at", "updated_at").
		Values(o.ID, o.Name, o.Slug, o.Email, o.Phone, o.Address, o.Timezone, o.CreatedAt, o.UpdatedAt).
		ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building query")
	}
	if _, err = executor(repo.db, tx).ExecContext(ctx, query, args...); err != nil {
		return org.Org{}, errors.Wrap(err, "inserting org")
	}
	return o, nil
}

func (repo orgRepository) GetOrg(ctx context.Context, filter org.GetFilter) (org.Org, error) {
	qb := psql.Select(orgCols).From("org")
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return org.Org{}, org.ErrNotFound
		}
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		qb = qb.Where(sq.Eq{"slug": filter.Slug})
	default:
		return org.Org{}, org.ErrNotFound
	}

	query, args, err := qb.Limit(1).ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building query")
	}
	var r orgRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return org.Org{}, trapNoRowsErr(err, org.ErrNotFound, "finding org")
	}
	return r.unpack(), nil
}

func (repo orgRepository) QueryOrgs(ctx context.Context, ordering []core.DBOrdering) ([]org.Org, error) {
	query, args, err := psql.Select(orgCols).From("org").
		OrderBy(orderClause(ordering, "created_at DESC")).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []orgRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying orgs")
	}
	orgs := make([]org.Org, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.unpack())
	}
	return orgs, nil
}

func (repo orgRepository) UpdateOrg(ctx context.Context, o org.Org) (org.Org, error) {
	query, args, err := psql.Update("org").
		Set("name", o.Name).
		Set("email", o.Email).
		Set("phone", o.Phone).
		Set("address", o.Address).
		Set("timezone", o.Timezone).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return org.Org{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return org.Org{}, errors.Wrap(err, "updating org")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return org.Org{}, org.ErrNotFound
	}
	return o, nil
}

func (repo orgRepository) DeleteOrgsByID(ctx context.Context, ids []string) (int, error) {
	query, args, err := psql.Delete("org").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting orgs")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
