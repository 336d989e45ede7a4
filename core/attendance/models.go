package attendance

import (
	"math"
	"time"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Record is one attendance session of a course. It moves from open to closed once, never back.
type Record struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"courseId"`
	TutorID         string     `json:"tutorId"`
	Date            time.Time  `json:"date"`
	TotalEnrolled   int        `json:"totalEnrolled"` // snapshot taken when the session opens
	PresentStudents []string   `json:"presentStudents"`
	Status          Status     `json:"status"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (r Record) IsOpen() bool { return r.Status == StatusOpen }

func (r Record) IsPresent(studentID string) bool {
	for _, id := range r.PresentStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// PresenceRatio is the share of the enrolled snapshot marked present, in [0, 1] for consistent data.
func (r Record) PresenceRatio() float64 {
	if r.TotalEnrolled <= 0 {
		return 0
	}
	return math.Round(float64(len(r.PresentStudents))/float64(r.TotalEnrolled)*100) / 100
}

// View is a Record as seen by a course member.
type View struct {
	Record
	TotalPresent  int     `json:"totalPresent"`
	PresenceRatio float64 `json:"presenceRatio"`
	WasPresent    *bool   `json:"wasPresent,omitempty"` // set for students only
}

func NewView(r Record, viewerID string, isStudent bool) View {
	v := View{
		Record:        r,
		TotalPresent:  len(r.PresentStudents),
		PresenceRatio: r.PresenceRatio(),
	}
	if isStudent {
		present := r.IsPresent(viewerID)
		v.WasPresent = &present
	}
	return v
}

// MarkResult is returned by Service.MarkPresent.
type MarkResult struct {
	Record        Record `json:"attendance"`
	AlreadyMarked bool   `json:"alreadyMarked"`
}
