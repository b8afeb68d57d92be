package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/messaging"
)

type messageRepository struct {
	db *messageTable
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, orgID string, filter *messaging.QueryFilter, ordering []core.DBOrdering) ([]messaging.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]messaging.Message, 0)
	for _, m := range repo.db.table {
		if m.OrgID != orgID {
			continue
		}
		if filter != nil {
			if !filter.SentFrom.IsZero() && m.SentAt.Before(filter.SentFrom) {
				continue
			}
			if !filter.SentTo.IsZero() && m.SentAt.After(filter.SentTo) {
				continue
			}
		}
		msgs = append(msgs, *m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.After(msgs[j].SentAt) })
	return msgs, nil
}

func (repo *messageRepository) GetMessage(ctx context.Context, orgID, id string) (messaging.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.table[id]; ok && m.OrgID == orgID {
		return *m, nil
	}
	return messaging.Message{}, messaging.ErrNotFound
}
