package inmemdb

import (
	"context"

	"github.com/kipkoec77/Edureach/core/discussion"
)

type discussionRepository struct {
	db *discussionTable
}

var _ discussion.Repository = (*discussionRepository)(nil)

func NewDiscussionRepository(db *DB) discussion.Repository {
	return &discussionRepository{db: db.discussion}
}

func (repo *discussionRepository) Messages(_ context.Context, courseID string) ([]discussion.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]discussion.Message{}, repo.db.table[courseID]...), nil
}

func (repo *discussionRepository) Append(_ context.Context, courseID string, m discussion.Message) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[courseID] = append(repo.db.table[courseID], m)
	return nil
}
