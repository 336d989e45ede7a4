package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/user"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("attendance session")
	ErrClosed         = core.NewStateError("attendance session is closed")
	ErrNotEnrolled    = core.NewForbiddenError("you are not enrolled in this course")
	ErrNotCreator     = core.NewForbiddenError("only the tutor who created this session can close it")
	ErrNotCourseTutor = core.NewForbiddenError("only the course tutor can create attendance")
)

type (
	Repository interface {
		// Create stores r and assigns its ID.
		Create(ctx context.Context, r Record) (Record, error)
		Get(ctx context.Context, id string) (Record, error)
		// AddPresent adds studentID to the present students of an open session.
		// It reports false when the session is not open anymore.
		AddPresent(ctx context.Context, id, studentID string) (Record, bool, error)
		// Close closes an open session; closing a closed session changes nothing.
		Close(ctx context.Context, id string, at time.Time) (Record, error)
		// ListByCourses returns the sessions of the given courses, newest first.
		ListByCourses(ctx context.Context, courseIDs ...string) ([]Record, error)
	}

	CourseGetter interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseGetter
		events  core.EventPublisher
		logger  core.Logger
	}
)

func NewService(repo Repository, courses CourseGetter, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, courses: courses, events: events, logger: logger}
}

// CreateSession opens a session for a course owned by p.
func (svc *Service) CreateSession(ctx context.Context, p user.Principal, courseID string) (Record, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Record{}, err
	}
	if !c.IsOwner(p.ID) {
		return Record{}, ErrNotCourseTutor
	}

	now := core.NowFunc()
	r, err := svc.repo.Create(ctx, Record{
		CourseID:        courseID,
		TutorID:         p.ID,
		Date:            now,
		TotalEnrolled:   len(c.Students),
		PresentStudents: []string{},
		Status:          StatusOpen,
		CreatedAt:       now,
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "creating attendance session")
	}
	core.PublishEvents(ctx, svc.events, svc.logger, core.NewEvent(core.EventAttendanceOpened, courseID, map[string]interface{}{
		"attendanceId":  r.ID,
		"courseId":      courseID,
		"tutorId":       p.ID,
		"totalEnrolled": r.TotalEnrolled,
	}))
	return r, nil
}

// MarkPresent marks the calling student present. Marking twice succeeds with AlreadyMarked set.
func (svc *Service) MarkPresent(ctx context.Context, p user.Principal, id string) (MarkResult, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return MarkResult{}, err
	}
	if !r.IsOpen() {
		return MarkResult{}, ErrClosed
	}
	c, err := svc.courses.GetCourse(ctx, r.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return MarkResult{}, ErrNotEnrolled
		}
		return MarkResult{}, err
	}
	if !c.IsEnrolled(p.ID) {
		return MarkResult{}, ErrNotEnrolled
	}
	if r.IsPresent(p.ID) {
		return MarkResult{Record: r, AlreadyMarked: true}, nil
	}

	r, open, err := svc.repo.AddPresent(ctx, id, p.ID)
	if err != nil {
		return MarkResult{}, errors.Wrap(err, "marking present")
	}
	if !open {
		return MarkResult{}, ErrClosed
	}
	return MarkResult{Record: r}, nil
}

// CloseSession closes a session. Only its creator may close it; closing twice is a no-op.
func (svc *Service) CloseSession(ctx context.Context, p user.Principal, id string) (Record, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.TutorID != p.ID {
		return Record{}, ErrNotCreator
	}
	if !r.IsOpen() {
		return r, nil
	}

	r, err = svc.repo.Close(ctx, id, core.NowFunc())
	if err != nil {
		return Record{}, errors.Wrap(err, "closing attendance session")
	}
	core.PublishEvents(ctx, svc.events, svc.logger, core.NewEvent(core.EventAttendanceClosed, r.CourseID, map[string]interface{}{
		"attendanceId":  r.ID,
		"courseId":      r.CourseID,
		"totalPresent":  len(r.PresentStudents),
		"totalEnrolled": r.TotalEnrolled,
	}))
	return r, nil
}

// ListForCourse returns the course sessions, newest first, to the course tutor or an enrolled student.
func (svc *Service) ListForCourse(ctx context.Context, p user.Principal, courseID string) ([]View, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsEnrolledOrOwner(p.ID) {
		return nil, course.ErrNotMember
	}

	records, err := svc.repo.ListByCourses(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance sessions")
	}
	isStudent := !c.IsOwner(p.ID)
	views := make([]View, 0, len(records))
	for _, r := range records {
		views = append(views, NewView(r, p.ID, isStudent))
	}
	return views, nil
}
