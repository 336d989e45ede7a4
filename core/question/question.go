// Package question holds the questions students address to the tutor of a course.
package question

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/user"
)

var ErrNotFound = core.NewNotFoundError("question")

type Question struct {
	ID         string     `json:"id"`
	CourseID   string     `json:"courseId"`
	StudentID  string     `json:"studentId"`
	TutorID    string     `json:"tutorId"`
	Message    string     `json:"message"`
	Answer     *string    `json:"answer"`
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

func (q Question) Answered() bool { return q.Answer != nil }

type NewQuestion struct {
	CourseID string `json:"courseId" validate:"required"`
	Message  string `json:"message" validate:"required,notblank"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.CourseID = core.CleanString(nq.CourseID)
	nq.Message = core.CleanString(nq.Message)
	return validate.Struct(nq)
}

type NewAnswer struct {
	Answer string `json:"answer" validate:"required,notblank"`
}

func (na *NewAnswer) Validate(validate *validator.Validate) error {
	na.Answer = core.CleanString(na.Answer)
	return validate.Struct(na)
}

type (
	Repository interface {
		Create(ctx context.Context, q Question) (Question, error)
		Get(ctx context.Context, id string) (Question, error)
		// ListByCourse returns the questions of a course, oldest first.
		ListByCourse(ctx context.Context, courseID string) ([]Question, error)
		// SetAnswer stores the answer of a question, replacing a previous one.
		SetAnswer(ctx context.Context, id, answer string, at time.Time) (Question, error)
	}

	CourseGetter interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseGetter
	}
)

func NewService(repo Repository, courses CourseGetter) *Service {
	return &Service{repo: repo, courses: courses}
}

// Ask records a question of an enrolled student, addressed to the course tutor.
func (svc *Service) Ask(ctx context.Context, p user.Principal, nq NewQuestion) (Question, error) {
	if !p.IsStudent() {
		return Question{}, course.ErrStudentsOnly
	}
	c, err := svc.courses.GetCourse(ctx, nq.CourseID)
	if err != nil {
		return Question{}, err
	}
	if !c.IsEnrolled(p.ID) {
		return Question{}, course.ErrNotMember
	}

	q, err := svc.repo.Create(ctx, Question{
		CourseID:  c.ID,
		StudentID: p.ID,
		TutorID:   c.OwnerID,
		Message:   nq.Message,
		CreatedAt: core.NowFunc(),
	})
	return q, errors.Wrap(err, "creating question")
}

func (svc *Service) List(ctx context.Context, p user.Principal, courseID string) ([]Question, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsEnrolledOrOwner(p.ID) {
		return nil, course.ErrNotMember
	}
	qs, err := svc.repo.ListByCourse(ctx, courseID)
	return qs, errors.Wrap(err, "listing questions")
}

// Answer lets the course tutor answer a question. Answering again replaces the answer.
func (svc *Service) Answer(ctx context.Context, p user.Principal, id string, na NewAnswer) (Question, error) {
	q, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Question{}, err
	}
	c, err := svc.courses.GetCourse(ctx, q.CourseID)
	if err != nil {
		return Question{}, err
	}
	if !c.IsOwner(p.ID) {
		return Question{}, course.ErrNotOwner
	}
	q, err = svc.repo.SetAnswer(ctx, id, na.Answer, core.NowFunc())
	return q, errors.Wrap(err, "answering question")
}
