package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kipkoec77/Edureach/core"
)

type (
	Note struct {
		ID string `json:"id"`
		core.FileRef
		UploadedAt time.Time `json:"uploadedAt"`
	}

	Assignment struct {
		ID          string        `json:"id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		File        *core.FileRef `json:"file,omitempty"`
		DueDate     *time.Time    `json:"dueDate,omitempty"`
		CreatedAt   time.Time     `json:"createdAt"`
	}

	Announcement struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	SyllabusModule struct {
		Title       string   `json:"title" validate:"required,notblank"`
		Description string   `json:"description"`
		Topics      []string `json:"topics"`
	}

	Enrollment struct {
		ID         string    `json:"id"`
		StudentID  string    `json:"studentId"`
		EnrolledAt time.Time `json:"enrolledAt"`
	}

	Course struct {
		ID            string           `json:"id"`
		Title         string           `json:"title"`
		Description   string           `json:"description"`
		Category      string           `json:"category"`
		Level         string           `json:"level"`
		OwnerID       string           `json:"ownerId"`
		Notes         []Note           `json:"notes"`
		Assignments   []Assignment     `json:"assignments"`
		Announcements []Announcement   `json:"announcements"`
		Syllabus      []SyllabusModule `json:"syllabus"`
		Students      []Enrollment     `json:"students"`
		CreatedAt     time.Time        `json:"createdAt"`
		UpdatedAt     time.Time        `json:"updatedAt"`
	}
)

func (c Course) IsOwner(userID string) bool {
	return userID != "" && c.OwnerID == userID
}

func (c Course) IsEnrolled(userID string) bool {
	if userID == "" {
		return false
	}
	for _, s := range c.Students {
		if s.StudentID == userID {
			return true
		}
	}
	return false
}

func (c Course) IsEnrolledOrOwner(userID string) bool {
	return c.IsOwner(userID) || c.IsEnrolled(userID)
}

func (c Course) Assignment(id string) (Assignment, bool) {
	for _, a := range c.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

func (c Course) Note(id string) (Note, bool) {
	for _, n := range c.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

func (c Course) Announcement(id string) (Announcement, bool) {
	for _, a := range c.Announcements {
		if a.ID == id {
			return a, true
		}
	}
	return Announcement{}, false
}

// StudentIDs returns the ids of the enrolled students, in enrollment order.
func (c Course) StudentIDs() []string {
	ids := make([]string, 0, len(c.Students))
	for _, s := range c.Students {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string           `json:"title" validate:"required,notblank"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Level       string           `json:"level"`
	Syllabus    []SyllabusModule `json:"syllabus" validate:"omitempty,dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanString(nc.Category)
	nc.Level = core.CleanString(nc.Level)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Nil fields are left untouched; the syllabus is replaced wholesale.
type UpdateCourse struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Level       *string           `json:"level"`
	Syllabus    *[]SyllabusModule `json:"syllabus" validate:"omitempty,dive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if err := cleanTitle(uc.Title); err != nil {
		return err
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.Syllabus != nil {
		c.Syllabus = *uc.Syllabus
	}
}

type NewAssignment struct {
	Title       string     `json:"title" validate:"required,notblank"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

type UpdateAssignment struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	if err := cleanTitle(ua.Title); err != nil {
		return err
	}
	return validate.Struct(ua)
}

// cleanTitle trims a provided title in place; a provided title cannot be blank.
func cleanTitle(title *string) error {
	if title == nil {
		return nil
	}
	*title = core.CleanString(*title)
	if *title == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
	}
	return nil
}

// NewAnnouncement is used to create or replace an Announcement. Content is accepted as an alias of Message.
type NewAnnouncement struct {
	Title   string `json:"title" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank"`
	Content string `json:"content,omitempty" validate:"-"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	if strings.TrimSpace(na.Message) == "" {
		na.Message = na.Content
	}
	na.Message = core.CleanString(na.Message)
	na.Content = ""
	return validate.Struct(na)
}

type QueryFilter struct {
	OwnerID   string `query:"tutor_id"`
	StudentID string `query:"-"`
}
