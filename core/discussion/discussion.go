// Package discussion holds the per-course message threads.
package discussion

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/user"
)

type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type NewMessage struct {
	Message string `json:"message" validate:"required,notblank"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Message = core.CleanString(nm.Message)
	return validate.Struct(nm)
}

type (
	// Repository stores one append-only thread per course.
	Repository interface {
		// Messages returns the thread of a course in chronological order; an empty thread when none exists.
		Messages(ctx context.Context, courseID string) ([]Message, error)
		// Append adds m to the course thread, creating the thread on first use.
		Append(ctx context.Context, courseID string, m Message) error
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

func (svc *Service) member(ctx context.Context, p user.Principal, courseID string) error {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !c.IsEnrolledOrOwner(p.ID) {
		return course.ErrNotMember
	}
	return nil
}

func (svc *Service) List(ctx context.Context, p user.Principal, courseID string) ([]Message, error) {
	if err := svc.member(ctx, p, courseID); err != nil {
		return nil, err
	}
	msgs, err := svc.repo.Messages(ctx, courseID)
	return msgs, errors.Wrap(err, "listing messages")
}

func (svc *Service) Post(ctx context.Context, p user.Principal, courseID string, nm NewMessage) (Message, error) {
	if err := svc.member(ctx, p, courseID); err != nil {
		return Message{}, err
	}
	m := Message{
		ID:        uuid.New().String(),
		UserID:    p.ID,
		Message:   nm.Message,
		Timestamp: core.NowFunc(),
	}
	if err := svc.repo.Append(ctx, courseID, m); err != nil {
		return Message{}, errors.Wrap(err, "posting message")
	}
	return m, nil
}
