package tutorapp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("application")
	ErrAlreadyExists = core.NewValidationError(errors.New("Application already submitted"))
	ErrAdminsOnly    = core.NewForbiddenError("forbidden: admins only")
)

type (
	Repository interface {
		// Create stores a and assigns its ID. It fails with ErrAlreadyExists when the user already applied.
		Create(ctx context.Context, a Application) (Application, error)
		Get(ctx context.Context, id string) (Application, error)
		GetByUser(ctx context.Context, userID string) (Application, error)
		// ListByStatus returns the applications with the given status, oldest first.
		ListByStatus(ctx context.Context, status Status) ([]Application, error)
		SetStatus(ctx context.Context, id string, status Status) (Application, error)
	}

	// UserStore is the part of the user service the tutor onboarding needs.
	UserStore interface {
		GetByIDs(ctx context.Context, ids ...string) ([]user.User, error)
		SetRole(ctx context.Context, id string, role user.Role) (user.User, error)
	}

	Service struct {
		repo   Repository
		users  UserStore
		logger core.Logger
	}
)

func NewService(repo Repository, users UserStore, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// Apply files the application of the caller. Each user applies once.
func (svc *Service) Apply(ctx context.Context, p user.Principal, na NewApplication) (Application, error) {
	_, err := svc.repo.GetByUser(ctx, p.ID)
	if err == nil {
		return Application{}, ErrAlreadyExists
	}
	if errors.Cause(err) != ErrNotFound {
		return Application{}, errors.Wrap(err, "finding application")
	}

	now := core.NowFunc()
	subjects := na.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	a, err := svc.repo.Create(ctx, Application{
		UserID:         p.ID,
		Subjects:       subjects,
		Experience:     na.Experience,
		IDNumber:       na.IDNumber,
		CertificateURL: na.CertificateURL,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyExists {
			return Application{}, ErrAlreadyExists
		}
		return Application{}, errors.Wrap(err, "creating application")
	}
	return a, nil
}

// Pending lists the applications awaiting review, with their applicants.
func (svc *Service) Pending(ctx context.Context, p user.Principal) ([]PendingApplication, error) {
	if !p.IsAdmin() {
		return nil, ErrAdminsOnly
	}
	apps, err := svc.repo.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, errors.Wrap(err, "listing pending applications")
	}

	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.UserID)
	}
	applicants := make(map[string]*Applicant, len(ids))
	if len(ids) > 0 {
		usrs, err := svc.users.GetByIDs(ctx, ids...)
		if err != nil {
			return nil, errors.Wrap(err, "finding applicants")
		}
		for _, u := range usrs {
			applicants[u.ID] = &Applicant{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}

	pending := make([]PendingApplication, 0, len(apps))
	for _, a := range apps {
		pending = append(pending, PendingApplication{Application: a, Applicant: applicants[a.UserID]})
	}
	return pending, nil
}

// Decide records the verdict of an admin. Approval promotes the applicant to tutor.
func (svc *Service) Decide(ctx context.Context, p user.Principal, id string, d Decision) (Application, error) {
	if !p.IsAdmin() {
		return Application{}, ErrAdminsOnly
	}
	if _, err := svc.repo.Get(ctx, id); err != nil {
		return Application{}, err
	}
	if d.Status == "" {
		d.Status = StatusApproved
	}

	a, err := svc.repo.SetStatus(ctx, id, d.Status)
	if err != nil {
		return Application{}, errors.Wrap(err, "updating application")
	}
	if a.Status == StatusApproved {
		if _, err = svc.users.SetRole(ctx, a.UserID, user.RoleTutor); err != nil {
			return Application{}, errors.Wrap(err, "promoting applicant")
		}
		svc.logger.Info("tutor application approved", map[string]interface{}{"application": a.ID, "user": a.UserID})
	}
	return a, nil
}
