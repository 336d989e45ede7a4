package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kipkoec77/Edureach/core"
)

// Submission is one file handed in by a student for an assignment.
// At most one non-archived Submission exists per (CourseID, AssignmentID, StudentID).
type Submission struct {
	ID           string `json:"id"`
	CourseID     string `json:"courseId"`
	AssignmentID string `json:"assignmentId"`
	StudentID    string `json:"studentId"`
	core.FileRef
	SubmittedAt          time.Time  `json:"submittedAt"`
	Grade                *float64   `json:"grade,omitempty"`
	Feedback             *string    `json:"feedback,omitempty"`
	GradedBy             *string    `json:"gradedBy,omitempty"`
	GradedAt             *time.Time `json:"gradedAt,omitempty"`
	Archived             bool       `json:"archived"`
	ArchivedAt           *time.Time `json:"archivedAt,omitempty"`
	PreviousSubmissionID *string    `json:"previousSubmissionId,omitempty"`
}

// IsLocked reports whether the submission was graded. Feedback alone does not lock.
func (s Submission) IsLocked() bool { return s.Grade != nil }

// Key identifies the chain of submissions of one student for one assignment.
type Key struct {
	CourseID     string
	AssignmentID string
	StudentID    string
}

func (s Submission) Key() Key {
	return Key{CourseID: s.CourseID, AssignmentID: s.AssignmentID, StudentID: s.StudentID}
}

// Grading holds the values a tutor sets on a submission. Nil fields are left untouched.
type Grading struct {
	Grade    *float64 `json:"grade" validate:"omitempty,min=0"`
	Feedback *string  `json:"feedback"`
}

func (g *Grading) Validate(validate *validator.Validate) error {
	if g.Feedback != nil {
		fb := core.CleanString(*g.Feedback)
		g.Feedback = &fb
	}
	return validate.Struct(g)
}

// SubmitResult is returned by Service.Submit. Updated is true when a previous submission was superseded.
type SubmitResult struct {
	Submission Submission `json:"submission"`
	Updated    bool       `json:"updated"`
}
