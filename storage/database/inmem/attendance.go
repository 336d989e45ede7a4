package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kipkoec77/Edureach/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func cloneRecord(r attendance.Record) attendance.Record {
	r.PresentStudents = append([]string{}, r.PresentStudents...)
	return r
}

func (repo *attendanceRepository) Create(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = newDocID()
	stored := cloneRecord(r)
	repo.db.table[r.ID] = &stored
	return cloneRecord(stored), nil
}

func (repo *attendanceRepository) Get(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return cloneRecord(*r), nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) AddPresent(_ context.Context, id, studentID string) (attendance.Record, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[id]
	if !ok {
		return attendance.Record{}, false, attendance.ErrNotFound
	}
	if !r.IsOpen() {
		return attendance.Record{}, false, nil
	}
	if !r.IsPresent(studentID) {
		r.PresentStudents = append(r.PresentStudents, studentID)
	}
	return cloneRecord(*r), true, nil
}

func (repo *attendanceRepository) Close(_ context.Context, id string, at time.Time) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if r.IsOpen() {
		at = at.UTC()
		r.Status = attendance.StatusClosed
		r.ClosedAt = &at
	}
	return cloneRecord(*r), nil
}

func (repo *attendanceRepository) ListByCourses(_ context.Context, courseIDs ...string) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		courses[id] = true
	}
	records := make([]attendance.Record, 0)
	for _, r := range repo.db.table {
		if courses[r.CourseID] {
			records = append(records, cloneRecord(*r))
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date.Equal(records[j].Date) {
			return records[i].ID > records[j].ID
		}
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}
