package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/member"
)

const memberCols = `id, org_id, first_name, last_name, gender, email, phone, address, birth_date,
	marital_status, status, joined_at, occupation, notes, is_active, created_at, updated_at`

type memberRow struct {
	ID            string      `db:"id"`
	OrgID         string      `db:"org_id"`
	FirstName     string      `db:"first_name"`
	LastName      string      `db:"last_name"`
	Gender        string      `db:"gender"`
	Email         string      `db:"email"`
	Phone         string      `db:"phone"`
	Address       string      `db:"address"`
	BirthDate     null.Time   `db:"birth_date"`
	MaritalStatus string      `db:"marital_status"`
	Status        string      `db:"status"`
	JoinedAt      null.Time   `db:"joined_at"`
	Occupation    string      `db:"occupation"`
	Notes         string      `db:"notes"`
	IsActive      null.Bool   `db:"is_active"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

func (r memberRow) unpack() member.Member {
	return member.Member{
		ID:            r.ID,
		OrgID:         r.OrgID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Gender:        r.Gender,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		BirthDate:     r.BirthDate.Time,
		MaritalStatus: r.MaritalStatus,
		Status:        r.Status,
		JoinedAt:      r.JoinedAt.Time,
		Occupation:    r.Occupation,
		Notes:         r.Notes,
		IsActive:      r.IsActive.Ptr(),
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

func packMember(m member.Member) memberRow {
	return memberRow{
		ID:            m.ID,
		OrgID:         m.OrgID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Gender:        m.Gender,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		BirthDate:     null.NewTime(m.BirthDate, !m.BirthDate.IsZero()),
		MaritalStatus: m.MaritalStatus,
		Status:        m.Status,
		JoinedAt:      null.NewTime(m.JoinedAt, !m.JoinedAt.IsZero()),
		Occupation:    m.Occupation,
		Notes:         m.Notes,
		IsActive:      null.BoolFromPtr(m.IsActive),
		CreatedAt:     null.NewTime(m.CreatedAt.UTC(), !m.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(m.UpdatedAt.UTC(), !m.UpdatedAt.IsZero()),
	}
}

type memberRepository struct {
	db *sqlx.DB
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *sqlx.DB) *memberRepository {
	return &memberRepository{db: db}
}

func (repo memberRepository) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	m.ID = uuid.New().String()
	r := packMember(m)
	query, args, err := psql.Insert("member").
		Columns("id", "org_id", "first_name", "last_name", "gender", "email", "phone", "address",
			"birth_date", "marital_status", "status", "joined_at", "occupation", "notes",
			"is_active", "created_at", "updated_at").
		Values(r.ID, r.OrgID, r.FirstName, r.LastName, r.Gender, r.Email, r.Phone, r.Address,
			r.BirthDate, r.MaritalStatus, r.Status, r.JoinedAt, r.Occupation, r.Notes,
			r.IsActive, r.CreatedAt, r.UpdatedAt).
		ToSql()
	if err != nil {
		return member.Member{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return member.Member{}, errors.Wrap(err, "inserting member")
	}
	return m, nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, orgID string, filter *member.QueryFilter, ordering []core.DBOrdering) ([]member.Member, error) {
	qb := psql.Select(memberCols).From("member").Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		// members with a name, email or phone matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			qb = qb.Where(sq.Or{
				sq.Expr("first_name ILIKE ?", val),
				sq.Expr("last_name ILIKE ?", val),
				sq.Expr("(first_name || ' ' || last_name) ILIKE ?", val),
				sq.Expr("email ILIKE ?", val),
				sq.Expr("phone ILIKE ?", val),
			})
		}
		if filter.Status != "" {
			qb = qb.Where(sq.Eq{"status": filter.Status})
		}
		if filter.Gender != "" {
			qb = qb.Where(sq.Eq{"gender": filter.Gender})
		}
		if filter.GroupID != "" {
			// a malformed group id matches no group
			if _, err := uuid.Parse(filter.GroupID); err != nil {
				return []member.Member{}, nil
			}
			qb = qb.Where("id IN (SELECT member_id FROM group_member WHERE group_id = ?)", filter.GroupID)
		}
		if filter.IsActive != nil {
			qb = qb.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.JoinedFrom.IsZero() {
			qb = qb.Where(sq.GtOrEq{"joined_at": filter.JoinedFrom.UTC()})
		}
		if !filter.JoinedTo.IsZero() {
			qb = qb.Where(sq.LtOrEq{"joined_at": filter.JoinedTo.UTC()})
		}
		if filter.HasBirthDate {
			qb = qb.Where("birth_date IS NOT NULL")
		}
	}

	query, args, err := qb.OrderBy(orderClause(ordering, "last_name ASC, first_name ASC")).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []memberRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	members := make([]member.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.unpack())
	}
	return members, nil
}

func (repo memberRepository) GetMember(ctx context.Context, orgID, id string) (member.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return member.Member{}, member.ErrNotFound
	}
	query, args, err := psql.Select(memberCols).From("member").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return member.Member{}, errors.Wrap(err, "building query")
	}
	var r memberRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return member.Member{}, trapNoRowsErr(err, member.ErrNotFound, "finding member")
	}
	return r.unpack(), nil
}

func (repo memberRepository) UpdateMember(ctx context.Context, m member.Member) (member.Member, error) {
	r := packMember(m)
	query, args, err := psql.Update("member").
		Set("first_name", r.FirstName).
		Set("last_name", r.LastName).
		Set("gender", r.Gender).
		Set("email", r.Email).
		Set("phone", r.Phone).
		Set("address", r.Address).
		Set("birth_date", r.BirthDate).
		Set("marital_status", r.MaritalStatus).
		Set("status", r.Status).
		Set("joined_at", r.JoinedAt).
		Set("occupation", r.Occupation).
		Set("notes", r.Notes).
		Set("is_active", r.IsActive).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"org_id": m.OrgID, "id": m.ID}).
		ToSql()
	if err != nil {
		return member.Member{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "updating member")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return m, nil
}

func (repo memberRepository) DeleteMembersByID(ctx context.Context, orgID string, ids []string) (int, error) {
	query, args, err := psql.Delete("member").Where(sq.Eq{"org_id": orgID, "id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting members")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo memberRepository) CountMembers(ctx context.Context, orgID, status string) (int, error) {
	qb := psql.Select("COUNT(*)").From("member").Where(sq.Eq{"org_id": orgID})
	if status != "" {
		qb = qb.Where(sq.Eq{"status": status})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting members")
	}
	return cnt, nil
}
