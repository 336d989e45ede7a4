package course

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/user"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("course")
	ErrNoteNotFound         = core.NewNotFoundError("note")
	ErrAssignmentNotFound   = core.NewNotFoundError("assignment")
	ErrAnnouncementNotFound = core.NewNotFoundError("announcement")
	ErrNotOwner             = core.NewForbiddenError("forbidden: only the course tutor can do this")
	ErrNotMember            = core.NewForbiddenError("forbidden: not enrolled in this course")
	ErrTutorsOnly           = core.NewForbiddenError("forbidden: tutors only")
	ErrStudentsOnly         = core.NewForbiddenError("forbidden: students only")
	ErrFileRequired         = core.NewValidationError(
		errors.New("missing file"),
		core.FieldError{Field: "file", Error: "this field is required"},
	)
)

// Upload folders
const (
	NotesFolder       = "notes"
	AssignmentsFolder = "assignments"
)

// Repository persists courses. Every write to a Course also refreshes its UpdatedAt.
type Repository interface {
	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	// QueryCourses returns matching courses, newest first.
	QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
	// UpdateCourse saves the scalar fields and the syllabus of c.
	UpdateCourse(ctx context.Context, c Course) (Course, error)
	DeleteCourse(ctx context.Context, id string) error

	// AddStudent appends e unless e.StudentID is already enrolled; it reports whether e was added.
	AddStudent(ctx context.Context, courseID string, e Enrollment) (bool, error)

	AddNote(ctx context.Context, courseID string, n Note) error
	RemoveNote(ctx context.Context, courseID, noteID string) (bool, error)

	AddAssignment(ctx context.Context, courseID string, a Assignment) error
	ReplaceAssignment(ctx context.Context, courseID string, a Assignment) (bool, error)
	RemoveAssignment(ctx context.Context, courseID, assignmentID string) (bool, error)

	AddAnnouncement(ctx context.Context, courseID string, a Announcement) error
	ReplaceAnnouncement(ctx context.Context, courseID string, a Announcement) (bool, error)
	RemoveAnnouncement(ctx context.Context, courseID, announcementID string) (bool, error)
}

type Service struct {
	repo   Repository
	files  core.FileStorage
	events core.EventPublisher
	logger core.Logger
}

func NewService(repo Repository, files core.FileStorage, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, files: files, events: events, logger: logger}
}

func newID() string { return uuid.New().String() }

func (svc *Service) Create(ctx context.Context, p user.Principal, nc NewCourse) (Course, error) {
	if !p.HasRole(user.RoleTutor) {
		return Course{}, ErrTutorsOnly
	}
	now := core.NowFunc()
	c := Course{
		Title:         nc.Title,
		Description:   nc.Description,
		Category:      nc.Category,
		Level:         nc.Level,
		OwnerID:       p.ID,
		Notes:         []Note{},
		Assignments:   []Assignment{},
		Announcements: []Announcement{},
		Syllabus:      nc.Syllabus,
		Students:      []Enrollment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.Syllabus == nil {
		c.Syllabus = []SyllabusModule{}
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "creating course")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, filter)
	return courses, errors.Wrap(err, "querying courses")
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// GetOwned returns the course if p owns it.
func (svc *Service) GetOwned(ctx context.Context, p user.Principal, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !c.IsOwner(p.ID) {
		return Course{}, ErrNotOwner
	}
	return c, nil
}

// GetForMember returns the course if p owns it or is enrolled in it.
func (svc *Service) GetForMember(ctx context.Context, p user.Principal, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !c.IsEnrolledOrOwner(p.ID) {
		return Course{}, ErrNotMember
	}
	return c, nil
}

func (svc *Service) Update(ctx context.Context, p user.Principal, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return Course{}, err
	}
	uc.apply(&c)
	c, err = svc.repo.UpdateCourse(ctx, c)
	return c, errors.Wrap(err, "updating course")
}

func (svc *Service) Delete(ctx context.Context, p user.Principal, id string) error {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteCourse(ctx, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	for _, n := range c.Notes {
		core.DiscardFile(ctx, svc.files, svc.logger, n.FileRef)
	}
	for _, a := range c.Assignments {
		if a.File != nil {
			core.DiscardFile(ctx, svc.files, svc.logger, *a.File)
		}
	}
	return nil
}

// Enroll enrolls the calling student. Enrolling twice is a no-op; it reports whether p was newly enrolled.
func (svc *Service) Enroll(ctx context.Context, p user.Principal, id string) (bool, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return false, err
	}
	if !p.HasRole(user.RoleStudent) {
		return false, ErrStudentsOnly
	}
	if c.IsEnrolled(p.ID) {
		return false, nil
	}

	e := Enrollment{ID: newID(), StudentID: p.ID, EnrolledAt: core.NowFunc()}
	added, err := svc.repo.AddStudent(ctx, id, e)
	if err != nil {
		return false, errors.Wrap(err, "enrolling student")
	}
	if added {
		core.PublishEvents(ctx, svc.events, svc.logger, core.NewEvent(core.EventCourseEnrolled, id, map[string]interface{}{
			"courseId":   id,
			"studentId":  p.ID,
			"enrolledAt": e.EnrolledAt,
		}))
	}
	return added, nil
}

// Roster returns the course enrollments, oldest first.
func (svc *Service) Roster(ctx context.Context, p user.Principal, id string) ([]Enrollment, error) {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return c.Students, nil
}

func (svc *Service) AddNote(ctx context.Context, p user.Principal, id string, up *core.Upload) (Note, error) {
	if _, err := svc.GetOwned(ctx, p, id); err != nil {
		return Note{}, err
	}
	if up == nil {
		return Note{}, ErrFileRequired
	}

	ref, err := svc.files.Save(ctx, NotesFolder, *up)
	if err != nil {
		return Note{}, errors.Wrap(err, "storing note")
	}
	n := Note{ID: newID(), FileRef: ref, UploadedAt: core.NowFunc()}
	if err = svc.repo.AddNote(ctx, id, n); err != nil {
		core.DiscardFile(ctx, svc.files, svc.logger, ref)
		return Note{}, errors.Wrap(err, "adding note")
	}
	return n, nil
}

func (svc *Service) DeleteNote(ctx context.Context, p user.Principal, id, noteID string) error {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return err
	}
	n, ok := c.Note(noteID)
	if !ok {
		return ErrNoteNotFound
	}
	removed, err := svc.repo.RemoveNote(ctx, id, noteID)
	if err != nil {
		return errors.Wrap(err, "removing note")
	}
	if !removed {
		return ErrNoteNotFound
	}
	core.DiscardFile(ctx, svc.files, svc.logger, n.FileRef)
	return nil
}

// AddAssignment creates an assignment; the attachment is optional.
func (svc *Service) AddAssignment(ctx context.Context, p user.Principal, id string, na NewAssignment, up *core.Upload) (Assignment, error) {
	if _, err := svc.GetOwned(ctx, p, id); err != nil {
		return Assignment{}, err
	}

	a := Assignment{
		ID:          newID(),
		Title:       na.Title,
		Description: na.Description,
		DueDate:     utcPtr(na.DueDate),
		CreatedAt:   core.NowFunc(),
	}
	if up != nil {
		ref, err := svc.files.Save(ctx, AssignmentsFolder, *up)
		if err != nil {
			return Assignment{}, errors.Wrap(err, "storing assignment file")
		}
		a.File = &ref
	}
	if err := svc.repo.AddAssignment(ctx, id, a); err != nil {
		if a.File != nil {
			core.DiscardFile(ctx, svc.files, svc.logger, *a.File)
		}
		return Assignment{}, errors.Wrap(err, "adding assignment")
	}
	return a, nil
}

// UpdateAssignment modifies an assignment. A new attachment replaces the previous one.
func (svc *Service) UpdateAssignment(
	ctx context.Context,
	p user.Principal,
	id, assignmentID string,
	ua UpdateAssignment,
	up *core.Upload,
) (Assignment, error) {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return Assignment{}, err
	}
	a, ok := c.Assignment(assignmentID)
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}

	if ua.Title != nil {
		a.Title = *ua.Title
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if ua.DueDate != nil {
		a.DueDate = utcPtr(ua.DueDate)
	}
	oldFile := a.File
	if up != nil {
		ref, err := svc.files.Save(ctx, AssignmentsFolder, *up)
		if err != nil {
			return Assignment{}, errors.Wrap(err, "storing assignment file")
		}
		a.File = &ref
	}

	replaced, err := svc.repo.ReplaceAssignment(ctx, id, a)
	if err == nil && !replaced {
		err = ErrAssignmentNotFound
	}
	if err != nil {
		if up != nil {
			core.DiscardFile(ctx, svc.files, svc.logger, *a.File)
		}
		if err == ErrAssignmentNotFound {
			return Assignment{}, err
		}
		return Assignment{}, errors.Wrap(err, "replacing assignment")
	}
	if up != nil && oldFile != nil {
		core.DiscardFile(ctx, svc.files, svc.logger, *oldFile)
	}
	return a, nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, p user.Principal, id, assignmentID string) error {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return err
	}
	a, ok := c.Assignment(assignmentID)
	if !ok {
		return ErrAssignmentNotFound
	}
	removed, err := svc.repo.RemoveAssignment(ctx, id, assignmentID)
	if err != nil {
		return errors.Wrap(err, "removing assignment")
	}
	if !removed {
		return ErrAssignmentNotFound
	}
	if a.File != nil {
		core.DiscardFile(ctx, svc.files, svc.logger, *a.File)
	}
	return nil
}

func (svc *Service) AddAnnouncement(ctx context.Context, p user.Principal, id string, na NewAnnouncement) (Announcement, error) {
	if _, err := svc.GetOwned(ctx, p, id); err != nil {
		return Announcement{}, err
	}
	now := core.NowFunc()
	a := Announcement{ID: newID(), Title: na.Title, Message: na.Message, CreatedAt: now, UpdatedAt: now}
	if err := svc.repo.AddAnnouncement(ctx, id, a); err != nil {
		return Announcement{}, errors.Wrap(err, "adding announcement")
	}
	return a, nil
}

// Announcements returns the course announcements, newest first.
func (svc *Service) Announcements(ctx context.Context, p user.Principal, id string) ([]Announcement, error) {
	c, err := svc.GetForMember(ctx, p, id)
	if err != nil {
		return nil, err
	}
	anns := make([]Announcement, len(c.Announcements))
	copy(anns, c.Announcements)
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

func (svc *Service) UpdateAnnouncement(
	ctx context.Context,
	p user.Principal,
	id, announcementID string,
	na NewAnnouncement,
) (Announcement, error) {
	c, err := svc.GetOwned(ctx, p, id)
	if err != nil {
		return Announcement{}, err
	}
	a, ok := c.Announcement(announcementID)
	if !ok {
		return Announcement{}, ErrAnnouncementNotFound
	}
	a.Title = na.Title
	a.Message = na.Message
	a.UpdatedAt = core.NowFunc()

	replaced, err := svc.repo.ReplaceAnnouncement(ctx, id, a)
	if err != nil {
		return Announcement{}, errors.Wrap(err, "replacing announcement")
	}
	if !replaced {
		return Announcement{}, ErrAnnouncementNotFound
	}
	return a, nil
}

func (svc *Service) DeleteAnnouncement(ctx context.Context, p user.Principal, id, announcementID string) error {
	if _, err := svc.GetOwned(ctx, p, id); err != nil {
		return err
	}
	removed, err := svc.repo.RemoveAnnouncement(ctx, id, announcementID)
	if err != nil {
		return errors.Wrap(err, "removing announcement")
	}
	if !removed {
		return ErrAnnouncementNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
