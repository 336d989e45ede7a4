package inmemdb

import (
	"context"
	"sort"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// cloneCourse copies c so that callers never share the stored slices.
func cloneCourse(c course.Course) course.Course {
	c.Notes = append([]course.Note{}, c.Notes...)
	c.Assignments = append([]course.Assignment{}, c.Assignments...)
	c.Announcements = append([]course.Announcement{}, c.Announcements...)
	c.Students = append([]course.Enrollment{}, c.Students...)
	syllabus := make([]course.SyllabusModule, 0, len(c.Syllabus))
	for _, m := range c.Syllabus {
		m.Topics = append([]string{}, m.Topics...)
		syllabus = append(syllabus, m)
	}
	c.Syllabus = syllabus
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newDocID()
	stored := cloneCourse(c)
	repo.db.table[c.ID] = &stored
	return cloneCourse(stored), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return cloneCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.StudentID != "" && !c.IsEnrolled(filter.StudentID) {
			continue
		}
		courses = append(courses, cloneCourse(*c))
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].ID > courses[j].ID
		}
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	return courses, nil
}

// modify runs fn on the stored course under the write lock and refreshes UpdatedAt when fn reports a change.
func (repo *courseRepository) modify(id string, fn func(c *course.Course) bool) (bool, error) {
	_, changed, err := repo.modifyCourse(id, fn)
	return changed, err
}

func (repo *courseRepository) modifyCourse(id string, fn func(c *course.Course) bool) (course.Course, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c, ok := repo.db.table[id]
	if !ok {
		return course.Course{}, false, course.ErrNotFound
	}
	changed := fn(c)
	if changed {
		c.UpdatedAt = core.NowFunc()
	}
	return cloneCourse(*c), changed, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	updated, _, err := repo.modifyCourse(c.ID, func(stored *course.Course) bool {
		stored.Title = c.Title
		stored.Description = c.Description
		stored.Category = c.Category
		stored.Level = c.Level
		stored.Syllabus = cloneCourse(course.Course{Syllabus: c.Syllabus}).Syllabus
		return true
	})
	return updated, err
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *courseRepository) AddStudent(_ context.Context, courseID string, e course.Enrollment) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		if c.IsEnrolled(e.StudentID) {
			return false
		}
		c.Students = append(c.Students, e)
		return true
	})
}

func (repo *courseRepository) AddNote(_ context.Context, courseID string, n course.Note) error {
	_, err := repo.modify(courseID, func(c *course.Course) bool {
		c.Notes = append(c.Notes, n)
		return true
	})
	return err
}

func (repo *courseRepository) RemoveNote(_ context.Context, courseID, noteID string) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		for i, n := range c.Notes {
			if n.ID == noteID {
				c.Notes = append(c.Notes[:i:i], c.Notes[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (repo *courseRepository) AddAssignment(_ context.Context, courseID string, a course.Assignment) error {
	_, err := repo.modify(courseID, func(c *course.Course) bool {
		c.Assignments = append(c.Assignments, a)
		return true
	})
	return err
}

func (repo *courseRepository) ReplaceAssignment(_ context.Context, courseID string, a course.Assignment) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		for i := range c.Assignments {
			if c.Assignments[i].ID == a.ID {
				c.Assignments[i] = a
				return true
			}
		}
		return false
	})
}

func (repo *courseRepository) RemoveAssignment(_ context.Context, courseID, assignmentID string) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		for i, a := range c.Assignments {
			if a.ID == assignmentID {
				c.Assignments = append(c.Assignments[:i:i], c.Assignments[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (repo *courseRepository) AddAnnouncement(_ context.Context, courseID string, a course.Announcement) error {
	_, err := repo.modify(courseID, func(c *course.Course) bool {
		c.Announcements = append(c.Announcements, a)
		return true
	})
	return err
}

func (repo *courseRepository) ReplaceAnnouncement(_ context.Context, courseID string, a course.Announcement) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		for i := range c.Announcements {
			if c.Announcements[i].ID == a.ID {
				c.Announcements[i] = a
				return true
			}
		}
		return false
	})
}

func (repo *courseRepository) RemoveAnnouncement(_ context.Context, courseID, announcementID string) (bool, error) {
	return repo.modify(courseID, func(c *course.Course) bool {
		for i, a := range c.Announcements {
			if a.ID == announcementID {
				c.Announcements = append(c.Announcements[:i:i], c.Announcements[i+1:]...)
				return true
			}
		}
		return false
	})
}
