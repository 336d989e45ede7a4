package inmemdb

import (
	"context"
	"sort"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/tutorapp"
)

type applicationRepository struct {
	db *applicationTable
}

var _ tutorapp.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) tutorapp.Repository {
	return &applicationRepository{db: db.application}
}

func cloneApplication(a tutorapp.Application) tutorapp.Application {
	a.Subjects = append([]string{}, a.Subjects...)
	return a
}

func (repo *applicationRepository) Create(_ context.Context, a tutorapp.Application) (tutorapp.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == a.UserID {
			return tutorapp.Application{}, tutorapp.ErrAlreadyExists
		}
	}
	a.ID = newDocID()
	stored := cloneApplication(a)
	repo.db.table[a.ID] = &stored
	return cloneApplication(stored), nil
}

func (repo *applicationRepository) Get(_ context.Context, id string) (tutorapp.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return cloneApplication(*a), nil
	}
	return tutorapp.Application{}, tutorapp.ErrNotFound
}

func (repo *applicationRepository) GetByUser(_ context.Context, userID string) (tutorapp.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.table {
		if a.UserID == userID {
			return cloneApplication(*a), nil
		}
	}
	return tutorapp.Application{}, tutorapp.ErrNotFound
}

func (repo *applicationRepository) ListByStatus(_ context.Context, status tutorapp.Status) ([]tutorapp.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]tutorapp.Application, 0)
	for _, a := range repo.db.table {
		if a.Status == status {
			apps = append(apps, cloneApplication(*a))
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
	return apps, nil
}

func (repo *applicationRepository) SetStatus(_ context.Context, id string, status tutorapp.Status) (tutorapp.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.table[id]
	if !ok {
		return tutorapp.Application{}, tutorapp.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = core.NowFunc()
	return cloneApplication(*a), nil
}
