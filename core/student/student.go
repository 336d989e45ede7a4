// Package student builds the read-only dashboards of a student from the course,
// submission and attendance stores.
package student

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/user"
)

var ErrSelfOrAdmin = core.NewForbiddenError("forbidden: you can only view your own courses")

type (
	CourseQuerier interface {
		QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error)
	}

	SubmissionLister interface {
		ListActiveByStudent(ctx context.Context, studentID string, courseIDs ...string) ([]submission.Submission, error)
	}

	AttendanceLister interface {
		ListByCourses(ctx context.Context, courseIDs ...string) ([]attendance.Record, error)
	}
)

type (
	Assignment struct {
		course.Assignment
		CourseID     string   `json:"courseId"`
		CourseTitle  string   `json:"courseTitle"`
		Submitted    bool     `json:"submitted"`
		SubmissionID *string  `json:"submissionId,omitempty"`
		Grade        *float64 `json:"grade,omitempty"`
		Feedback     *string  `json:"feedback,omitempty"`
	}

	Note struct {
		course.Note
		CourseID    string `json:"courseId"`
		CourseTitle string `json:"courseTitle"`
	}

	Attendance struct {
		attendance.Record
		CourseTitle  string `json:"courseTitle"`
		WasPresent   bool   `json:"wasPresent"`
		TotalPresent int    `json:"totalPresent"`
	}

	Progress struct {
		CourseID    string `json:"courseId"`
		CourseTitle string `json:"courseTitle"`
		Submitted   int    `json:"submitted"`
		Total       int    `json:"total"`
		Progress    int    `json:"progress"`
	}
)

type Service struct {
	courses     CourseQuerier
	submissions SubmissionLister
	attendance  AttendanceLister
}

func NewService(courses CourseQuerier, submissions SubmissionLister, att AttendanceLister) *Service {
	return &Service{courses: courses, submissions: submissions, attendance: att}
}

// Courses returns the courses p is enrolled in, newest first.
func (svc *Service) Courses(ctx context.Context, p user.Principal) ([]course.Course, error) {
	courses, err := svc.courses.QueryCourses(ctx, course.QueryFilter{StudentID: p.ID})
	return courses, errors.Wrap(err, "finding enrolled courses")
}

// EnrolledCourses returns the courses of userID to that user or an admin.
func (svc *Service) EnrolledCourses(ctx context.Context, p user.Principal, userID string) ([]course.Course, error) {
	if p.ID != userID && !p.IsAdmin() {
		return nil, ErrSelfOrAdmin
	}
	return svc.Courses(ctx, user.Principal{ID: userID})
}

func courseIDs(courses []course.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

// active indexes the active submissions of p by course and assignment.
func (svc *Service) active(ctx context.Context, p user.Principal, courses []course.Course) (map[[2]string]submission.Submission, error) {
	subs := map[[2]string]submission.Submission{}
	if len(courses) == 0 {
		return subs, nil
	}
	list, err := svc.submissions.ListActiveByStudent(ctx, p.ID, courseIDs(courses)...)
	if err != nil {
		return nil, errors.Wrap(err, "finding submissions")
	}
	for _, s := range list {
		subs[[2]string{s.CourseID, s.AssignmentID}] = s
	}
	return subs, nil
}

// Assignments returns every assignment of the enrolled courses with the state of the
// caller's submission, by due date with undated assignments last.
func (svc *Service) Assignments(ctx context.Context, p user.Principal) ([]Assignment, error) {
	courses, err := svc.Courses(ctx, p)
	if err != nil {
		return nil, err
	}
	subs, err := svc.active(ctx, p, courses)
	if err != nil {
		return nil, err
	}

	assignments := []Assignment{}
	for _, c := range courses {
		for _, a := range c.Assignments {
			sa := Assignment{Assignment: a, CourseID: c.ID, CourseTitle: c.Title}
			if s, ok := subs[[2]string{c.ID, a.ID}]; ok {
				id := s.ID
				sa.Submitted = true
				sa.SubmissionID = &id
				sa.Grade = s.Grade
				sa.Feedback = s.Feedback
			}
			assignments = append(assignments, sa)
		}
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		di, dj := assignments[i].DueDate, assignments[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return di.Before(*dj)
	})
	return assignments, nil
}

// Notes returns every note of the enrolled courses, newest first.
func (svc *Service) Notes(ctx context.Context, p user.Principal) ([]Note, error) {
	courses, err := svc.Courses(ctx, p)
	if err != nil {
		return nil, err
	}
	notes := []Note{}
	for _, c := range courses {
		for _, n := range c.Notes {
			notes = append(notes, Note{Note: n, CourseID: c.ID, CourseTitle: c.Title})
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].UploadedAt.After(notes[j].UploadedAt) })
	return notes, nil
}

// Attendance returns the sessions of the enrolled courses, newest first.
func (svc *Service) Attendance(ctx context.Context, p user.Principal) ([]Attendance, error) {
	courses, err := svc.Courses(ctx, p)
	if err != nil {
		return nil, err
	}
	res := []Attendance{}
	if len(courses) == 0 {
		return res, nil
	}
	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		titles[c.ID] = c.Title
	}

	records, err := svc.attendance.ListByCourses(ctx, courseIDs(courses)...)
	if err != nil {
		return nil, errors.Wrap(err, "finding attendance")
	}
	for _, r := range records {
		title, ok := titles[r.CourseID]
		if !ok {
			title = "Unknown Course"
		}
		res = append(res, Attendance{
			Record:       r,
			CourseTitle:  title,
			WasPresent:   r.IsPresent(p.ID),
			TotalPresent: len(r.PresentStudents),
		})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return res, nil
}

// Progress returns, per enrolled course, the share of assignments the caller submitted.
func (svc *Service) Progress(ctx context.Context, p user.Principal) ([]Progress, error) {
	courses, err := svc.Courses(ctx, p)
	if err != nil {
		return nil, err
	}
	subs, err := svc.active(ctx, p, courses)
	if err != nil {
		return nil, err
	}

	progress := make([]Progress, 0, len(courses))
	for _, c := range courses {
		pr := Progress{CourseID: c.ID, CourseTitle: c.Title, Total: len(c.Assignments)}
		for _, a := range c.Assignments {
			if _, ok := subs[[2]string{c.ID, a.ID}]; ok {
				pr.Submitted++
			}
		}
		pr.Progress = percent(pr.Submitted, pr.Total)
		progress = append(progress, pr)
	}
	return progress, nil
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}
