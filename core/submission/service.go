package submission

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
	ErrNotFound    = core.NewNotFoundError("submission")
	ErrLocked      = core.NewLockedError("submission locked: assignment already graded")
	ErrConflict    = core.NewConflictError("another submission was recorded at the same time, please retry")
	ErrNotEnrolled = core.NewForbiddenError("forbidden: not enrolled in this course")
)

// Folder is the upload folder of submitted files.
const Folder = "submissions"

type (
	Repository interface {
		// GetActive returns the non-archived submission for k.
		GetActive(ctx context.Context, k Key) (Submission, error)
		GetByID(ctx context.Context, id string) (Submission, error)
		// Insert stores s and assigns its ID. It fails with ErrConflict when s is not archived
		// and another non-archived submission exists for s.Key().
		Insert(ctx context.Context, s Submission) (Submission, error)
		// Archive archives the submission only while it is neither archived nor graded; it reports whether it did.
		Archive(ctx context.Context, id string, at time.Time) (bool, error)
		// SetGrading applies the non-nil fields of g and records who graded and when.
		SetGrading(ctx context.Context, id string, g Grading, gradedBy string, at time.Time) (Submission, error)
		// ListActive returns the non-archived submissions of an assignment, newest first.
		ListActive(ctx context.Context, courseID, assignmentID string) ([]Submission, error)
		// ListHistory returns every submission for k, archived ones included, newest first.
		ListHistory(ctx context.Context, k Key) ([]Submission, error)
		// ListActiveByStudent returns the non-archived submissions of a student in the given courses.
		ListActiveByStudent(ctx context.Context, studentID string, courseIDs ...string) ([]Submission, error)
	}

	CourseGetter interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseGetter
		files   core.FileStorage
		events  core.EventPublisher
		logger  core.Logger
	}
)

func NewService(
	repo Repository,
	courses CourseGetter,
	files core.FileStorage,
	events core.EventPublisher,
	logger core.Logger,
) *Service {
	return &Service{repo: repo, courses: courses, files: files, events: events, logger: logger}
}

// Submit records a new submission for the calling student, superseding an ungraded previous one.
// Graded submissions lock the assignment for the student.
func (svc *Service) Submit(ctx context.Context, p user.Principal, courseID, assignmentID string, up *core.Upload) (SubmitResult, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !c.IsEnrolled(p.ID) {
		return SubmitResult{}, ErrNotEnrolled
	}
	if _, ok := c.Assignment(assignmentID); !ok {
		return SubmitResult{}, course.ErrAssignmentNotFound
	}
	if up == nil {
		return SubmitResult{}, course.ErrFileRequired
	}

	k := Key{CourseID: courseID, AssignmentID: assignmentID, StudentID: p.ID}
	prev, err := svc.repo.GetActive(ctx, k)
	hasPrev := err == nil
	if err != nil && errors.Cause(err) != ErrNotFound {
		return SubmitResult{}, errors.Wrap(err, "finding active submission")
	}
	if hasPrev && prev.IsLocked() {
		return SubmitResult{}, ErrLocked
	}

	ref, err := svc.files.Save(ctx, Folder, *up)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "storing submission file")
	}

	sub, err := svc.record(ctx, k, ref, prev, hasPrev)
	if err != nil {
		core.DiscardFile(ctx, svc.files, svc.logger, ref)
		return SubmitResult{}, err
	}

	res := SubmitResult{Submission: sub, Updated: sub.PreviousSubmissionID != nil}
	core.PublishEvents(ctx, svc.events, svc.logger, core.NewEvent(core.EventSubmissionSubmitted, courseID, map[string]interface{}{
		"submissionId": sub.ID,
		"courseId":     courseID,
		"assignmentId": assignmentID,
		"studentId":    p.ID,
		"updated":      res.Updated,
	}))
	return res, nil
}

// record archives prev (when set) then inserts the new active submission.
func (svc *Service) record(ctx context.Context, k Key, ref core.FileRef, prev Submission, hasPrev bool) (Submission, error) {
	now := core.NowFunc()
	sub := Submission{
		CourseID:     k.CourseID,
		AssignmentID: k.AssignmentID,
		StudentID:    k.StudentID,
		FileRef:      ref,
		SubmittedAt:  now,
	}

	if hasPrev {
		archived, err := svc.repo.Archive(ctx, prev.ID, now)
		if err != nil {
			return Submission{}, errors.Wrap(err, "archiving previous submission")
		}
		if !archived {
			// a concurrent grade or submit got there first
			cur, err := svc.repo.GetByID(ctx, prev.ID)
			if err != nil {
				return Submission{}, errors.Wrap(err, "reloading previous submission")
			}
			if cur.IsLocked() {
				return Submission{}, ErrLocked
			}
			return Submission{}, ErrConflict
		}
		prevID := prev.ID
		sub.PreviousSubmissionID = &prevID
	}

	sub, err := svc.repo.Insert(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrConflict {
			return Submission{}, ErrConflict
		}
		return Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

// Grade sets the grade and/or feedback of a submission. Only the course tutor may grade.
func (svc *Service) Grade(ctx context.Context, p user.Principal, submissionID string, g Grading) (Submission, error) {
	sub, err := svc.repo.GetByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	c, err := svc.courses.GetCourse(ctx, sub.CourseID)
	if err != nil {
		return Submission{}, err
	}
	if !c.IsOwner(p.ID) {
		return Submission{}, course.ErrNotOwner
	}

	sub, err = svc.repo.SetGrading(ctx, submissionID, g, p.ID, core.NowFunc())
	if err != nil {
		return Submission{}, errors.Wrap(err, "grading submission")
	}
	core.PublishEvents(ctx, svc.events, svc.logger, core.NewEvent(core.EventSubmissionGraded, sub.CourseID, map[string]interface{}{
		"submissionId": sub.ID,
		"courseId":     sub.CourseID,
		"assignmentId": sub.AssignmentID,
		"studentId":    sub.StudentID,
		"grade":        sub.Grade,
		"locked":       sub.IsLocked(),
	}))
	return sub, nil
}

// List returns the active submissions of an assignment, newest first. Only the course tutor may list.
func (svc *Service) List(ctx context.Context, p user.Principal, courseID, assignmentID string) ([]Submission, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwner(p.ID) {
		return nil, course.ErrNotOwner
	}
	subs, err := svc.repo.ListActive(ctx, courseID, assignmentID)
	return subs, errors.Wrap(err, "listing submissions")
}

// GetMine returns the active submission of the caller, or nil when there is none.
func (svc *Service) GetMine(ctx context.Context, p user.Principal, courseID, assignmentID string) (*Submission, error) {
	sub, err := svc.repo.GetActive(ctx, Key{CourseID: courseID, AssignmentID: assignmentID, StudentID: p.ID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding active submission")
	}
	return &sub, nil
}

// History returns the submission chain of the caller: the newest first, then each predecessor.
func (svc *Service) History(ctx context.Context, p user.Principal, courseID, assignmentID string) ([]Submission, error) {
	subs, err := svc.repo.ListHistory(ctx, Key{CourseID: courseID, AssignmentID: assignmentID, StudentID: p.ID})
	if err != nil {
		return nil, errors.Wrap(err, "listing submission history")
	}
	return chain(subs), nil
}

// chain orders subs (newest first) by following PreviousSubmissionID from the head.
// Submissions outside the chain keep their relative order at the end.
func chain(subs []Submission) []Submission {
	if len(subs) < 2 {
		return subs
	}
	byID := make(map[string]Submission, len(subs))
	for _, s := range subs {
		byID[s.ID] = s
	}

	head := subs[0]
	for _, s := range subs {
		if !s.Archived {
			head = s
			break
		}
	}

	ordered := make([]Submission, 0, len(subs))
	seen := make(map[string]bool, len(subs))
	for cur, ok := head, true; ok && !seen[cur.ID]; {
		ordered = append(ordered, cur)
		seen[cur.ID] = true
		if cur.PreviousSubmissionID == nil {
			break
		}
		cur, ok = byID[*cur.PreviousSubmissionID]
	}
	for _, s := range subs {
		if !seen[s.ID] {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
