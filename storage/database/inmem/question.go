package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kipkoec77/Edureach/core/question"
)

type questionRepository struct {
	db *questionTable
}

var _ question.Repository = (*questionRepository)(nil)

func NewQuestionRepository(db *DB) question.Repository {
	return &questionRepository{db: db.question}
}

func cloneQuestion(q question.Question) question.Question {
	if q.Answer != nil {
		a := *q.Answer
		q.Answer = &a
	}
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		q.AnsweredAt = &at
	}
	return q
}

func (repo *questionRepository) Create(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q.ID = newDocID()
	stored := cloneQuestion(q)
	repo.db.table[q.ID] = &stored
	return cloneQuestion(stored), nil
}

func (repo *questionRepository) Get(_ context.Context, id string) (question.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return cloneQuestion(*q), nil
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) ListByCourse(_ context.Context, courseID string) ([]question.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	qs := make([]question.Question, 0)
	for _, q := range repo.db.table {
		if q.CourseID == courseID {
			qs = append(qs, cloneQuestion(*q))
		}
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].ID < qs[j].ID
		}
		return qs[i].CreatedAt.Before(qs[j].CreatedAt)
	})
	return qs, nil
}

func (repo *questionRepository) SetAnswer(_ context.Context, id, answer string, at time.Time) (question.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.table[id]
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	at = at.UTC()
	q.Answer = &answer
	q.AnsweredAt = &at
	return cloneQuestion(*q), nil
}
