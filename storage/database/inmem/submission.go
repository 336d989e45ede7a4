package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kipkoec77/Edureach/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

// filter returns the submissions accepted by keep, newest first.
func (repo *submissionRepository) filter(keep func(s *submission.Submission) bool) []submission.Submission {
	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.table {
		if keep(s) {
			subs = append(subs, *s)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].ID > subs[j].ID
		}
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
	return subs
}

func (repo *submissionRepository) activeFor(k submission.Key) *submission.Submission {
	for _, s := range repo.db.table {
		if !s.Archived && s.Key() == k {
			return s
		}
	}
	return nil
}

func (repo *submissionRepository) GetActive(_ context.Context, k submission.Key) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s := repo.activeFor(k); s != nil {
		return *s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) Insert(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if !s.Archived && repo.activeFor(s.Key()) != nil {
		return submission.Submission{}, submission.ErrConflict
	}
	s.ID = newDocID()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *submissionRepository) Archive(_ context.Context, id string, at time.Time) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.table[id]
	if !ok || s.Archived || s.Grade != nil {
		return false, nil
	}
	at = at.UTC()
	s.Archived = true
	s.ArchivedAt = &at
	return true, nil
}

func (repo *submissionRepository) SetGrading(
	_ context.Context,
	id string,
	g submission.Grading,
	gradedBy string,
	at time.Time,
) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	if g.Grade != nil {
		grade := *g.Grade
		s.Grade = &grade
	}
	if g.Feedback != nil {
		fb := *g.Feedback
		s.Feedback = &fb
	}
	at = at.UTC()
	s.GradedBy = &gradedBy
	s.GradedAt = &at
	return *s, nil
}

func (repo *submissionRepository) ListActive(_ context.Context, courseID, assignmentID string) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.filter(func(s *submission.Submission) bool {
		return !s.Archived && s.CourseID == courseID && s.AssignmentID == assignmentID
	}), nil
}

func (repo *submissionRepository) ListHistory(_ context.Context, k submission.Key) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.filter(func(s *submission.Submission) bool { return s.Key() == k }), nil
}

func (repo *submissionRepository) ListActiveByStudent(_ context.Context, studentID string, courseIDs ...string) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		courses[id] = true
	}
	return repo.filter(func(s *submission.Submission) bool {
		return !s.Archived && s.StudentID == studentID && courses[s.CourseID]
	}), nil
}
