package tutorapp

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kipkoec77/Edureach/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is a user's request to become a tutor.
type Application struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Subjects       []string  `json:"subjects"`
	Experience     string    `json:"experience"`
	IDNumber       string    `json:"idNumber"`
	CertificateURL string    `json:"certificateURL"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Applicant is the public part of the applying user.
type Applicant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PendingApplication is an Application listed for review, with its applicant.
type PendingApplication struct {
	Application
	Applicant *Applicant `json:"applicant,omitempty"`
}

type NewApplication struct {
	Subjects       []string `json:"subjects" validate:"omitempty,dive,notblank"`
	Experience     string   `json:"experience"`
	IDNumber       string   `json:"idNumber"`
	CertificateURL string   `json:"certificateURL" validate:"omitempty,url"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	for i := range na.Subjects {
		na.Subjects[i] = core.CleanString(na.Subjects[i])
	}
	na.Experience = core.CleanString(na.Experience)
	na.IDNumber = core.CleanString(na.IDNumber)
	na.CertificateURL = core.CleanString(na.CertificateURL)
	return validate.Struct(na)
}

// Decision is an admin verdict on an Application. An empty status means approved.
type Decision struct {
	Status Status `json:"status" validate:"omitempty,oneof=approved rejected"`
}

func (d *Decision) Validate(validate *validator.Validate) error {
	d.Status = Status(core.CleanString(string(d.Status), true))
	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.Status == "" {
		d.Status = StatusApproved
	}
	return nil
}
