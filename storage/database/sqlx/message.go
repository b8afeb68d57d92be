package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/messaging"
)

const messageCols = `id, org_id, sender_id, subject, body, member_ids, group_ids, recipient_count, skipped_count, sent_at, created_at`

type messageRow struct {
	ID             string      `db:"id"`
	OrgID          string      `db:"org_id"`
	SenderID       string      `db:"sender_id"`
	Subject        string      `db:"subject"`
	Body           string      `db:"body"`
	MemberIDs      stringArray `db:"member_ids"`
	GroupIDs       stringArray `db:"group_ids"`
	RecipientCount int         `db:"recipient_count"`
	SkippedCount   int         `db:"skipped_count"`
	SentAt         time.Time   `db:"sent_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (r messageRow) unpack() messaging.Message {
	return messaging.Message{
		ID:             r.ID,
		OrgID:          r.OrgID,
		SenderID:       r.SenderID,
		Subject:        r.Subject,
		Body:           r.Body,
		MemberIDs:      []string(r.MemberIDs),
		GroupIDs:       []string(r.GroupIDs),
		RecipientCount: r.RecipientCount,
		SkippedCount:   r.SkippedCount,
		SentAt:         r.SentAt,
		CreatedAt:      r.CreatedAt,
	}
}

type messageRepository struct {
	db *sqlx.DB
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo messageRepository) CreateMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	m.ID = uuid.New().String()
	query, args, err := psql.Insert("message").
		Columns("id", "org_id", "sender_id", "subject", "body", "member_ids", "group_ids",
			"recipient_count", "skipped_count", "sent_at", "created_at").
		Values(m.ID, m.OrgID, m.SenderID, m.Subject, m.Body, stringArray(m.MemberIDs), stringArray(m.GroupIDs),
			m.RecipientCount, m.SkippedCount, m.SentAt.UTC(), m.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return messaging.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo messageRepository) QueryMessages(ctx context.Context, orgID string, filter *messaging.QueryFilter, ordering []core.DBOrdering) ([]messaging.Message, error) {
	qb := psql.Select(messageCols).From("message").Where(sq.Eq{"org_id": orgID})

	if filter != nil {
		if !filter.SentFrom.IsZero() {
			qb = qb.Where(sq.GtOrEq{"sent_at": filter.SentFrom.UTC()})
		}
		if !filter.SentTo.IsZero() {
			qb = qb.Where(sq.LtOrEq{"sent_at": filter.SentTo.UTC()})
		}
	}

	query, args, err := qb.OrderBy(orderClause(ordering, "sent_at DESC")).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []messageRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	msgs := make([]messaging.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.unpack())
	}
	return msgs, nil
}

func (repo messageRepository) GetMessage(ctx context.Context, orgID, id string) (messaging.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return messaging.Message{}, messaging.ErrNotFound
	}
	query, args, err := psql.Select(messageCols).From("message").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "building query")
	}
	var r messageRow
	if err = repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return messaging.Message{}, trapNoRowsErr(err, messaging.ErrNotFound, "finding message")
	}
	return r.unpack(), nil
}
