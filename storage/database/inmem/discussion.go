package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core/discussion"
)

type discussionRepository struct {
	db *DB
}

var _ discussion.Repository = (*discussionRepository)(nil)

func NewDiscussionRepository(db *DB) discussion.Repository {
	return &discussionRepository{db: db}
}

func (repo *discussionRepository) CreateMessage(_ context.Context, m discussion.Message) (discussion.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.projects[m.ProjectID]; !ok {
		return discussion.Message{}, errMissingRef("project", m.ProjectID)
	}
	if _, ok := repo.db.users[m.SenderID]; !ok {
		return discussion.Message{}, errMissingRef("user", m.SenderID)
	}
	m.ID = repo.db.newID()
	stored := m
	repo.db.messages[m.ID] = &stored
	return m, nil
}

func (repo *discussionRepository) QueryMessages(_ context.Context, projectID string) ([]discussion.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]discussion.Message, 0)
	for _, m := range repo.db.messages {
		if m.ProjectID == projectID {
			msgs = append(msgs, *m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		return repo.db.older(msgs[i].ID, msgs[i].CreatedAt, msgs[j].ID, msgs[j].CreatedAt)
	})
	return msgs, nil
}

// errMissingRef mimics a foreign key violation.
func errMissingRef(table, id string) error {
	return errors.Errorf("%s %q does not exist", table, id)
}

// errDuplicate mimics a unique constraint violation.
func errDuplicate(table string) error {
	return errors.Errorf("duplicate %s", table)
}
