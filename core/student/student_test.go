package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/student"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/events"
	"github.com/kipkoec77/Edureach/services/filestore"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

type fixture struct {
	svc        *student.Service
	courses    *course.Service
	subs       *submission.Service
	attendance *attendance.Service
	crsRepo    course.Repository
	tutor      user.User
	student    user.User
	admin      user.User
}

func setup(t *testing.T) fixture {
	testutil.StubClock(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)
	files, err := filestore.NewDiskStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	logger := testutil.NewLogger(core.NewTestConfig())
	rec := events.NewRecorder()

	return fixture{
		svc:        student.NewService(crsRepo, subRepo, attRepo),
		courses:    course.NewService(crsRepo, files, rec, logger),
		subs:       submission.NewService(subRepo, crsRepo, files, rec, logger),
		attendance: attendance.NewService(attRepo, crsRepo, rec, logger),
		crsRepo:    crsRepo,
		tutor:      testutil.CreateUser(t, usrRepo, "Tutor", "tutor@test.io", "", user.RoleTutor, true),
		student:    testutil.CreateUser(t, usrRepo, "Student", "student@test.io", "", user.RoleStudent, true),
		admin:      testutil.CreateUser(t, usrRepo, "Admin", "admin@test.io", "", user.RoleAdmin, true),
	}
}

func TestService_EnrolledCourses(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Maths", f.student)
	testutil.CreateCourse(t, f.crsRepo, f.tutor, "Not enrolled")

	tests := []struct {
		name    string
		usr     user.User
		wantErr error
		wantLen int
	}{
		{name: "self", usr: f.student, wantLen: 1},
		{name: "admin", usr: f.admin, wantLen: 1},
		{name: "someone else", usr: f.tutor, wantErr: student.ErrSelfOrAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := f.svc.EnrolledCourses(ctx, tt.usr.Principal(), f.student.ID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, courses, tt.wantLen)
			assert.Equal(t, c.ID, courses[0].ID)
		})
	}
}

func TestService_Assignments(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Maths", f.student)
	day := func(d int) time.Time { return time.Date(2024, 4, d, 12, 0, 0, 0, time.UTC) }
	late := testutil.AddAssignment(t, f.crsRepo, c.ID, "Late", day(20))
	undated := testutil.AddAssignment(t, f.crsRepo, c.ID, "Undated")
	soon := testutil.AddAssignment(t, f.crsRepo, c.ID, "Soon", day(2))

	res, err := f.subs.Submit(ctx, f.student.Principal(), c.ID, soon.ID, testutil.NewUpload("soon.pdf", "x"))
	require.NoError(t, err)
	grade := 14.0
	_, err = f.subs.Grade(ctx, f.tutor.Principal(), res.Submission.ID, submission.Grading{Grade: &grade})
	require.NoError(t, err)

	assignments, err := f.svc.Assignments(ctx, f.student.Principal())
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, soon.ID, assignments[0].ID)
	assert.Equal(t, late.ID, assignments[1].ID)
	assert.Equal(t, undated.ID, assignments[2].ID)

	assert.True(t, assignments[0].Submitted)
	assert.Equal(t, res.Submission.ID, *assignments[0].SubmissionID)
	assert.Equal(t, 14.0, *assignments[0].Grade)
	assert.Equal(t, "Maths", assignments[0].CourseTitle)
	assert.False(t, assignments[1].Submitted)
	assert.Nil(t, assignments[1].SubmissionID)
}

func TestService_Notes(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c1 := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Maths", f.student)
	c2 := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Physics", f.student)

	n1, err := f.courses.AddNote(ctx, f.tutor.Principal(), c1.ID, testutil.NewUpload("n1.pdf", "1"))
	require.NoError(t, err)
	n2, err := f.courses.AddNote(ctx, f.tutor.Principal(), c2.ID, testutil.NewUpload("n2.pdf", "2"))
	require.NoError(t, err)

	notes, err := f.svc.Notes(ctx, f.student.Principal())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, n2.ID, notes[0].ID)
	assert.Equal(t, "Physics", notes[0].CourseTitle)
	assert.Equal(t, n1.ID, notes[1].ID)
	assert.Equal(t, c1.ID, notes[1].CourseID)
}

func TestService_Attendance(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Maths", f.student)

	attended, err := f.attendance.CreateSession(ctx, f.tutor.Principal(), c.ID)
	require.NoError(t, err)
	_, err = f.attendance.MarkPresent(ctx, f.student.Principal(), attended.ID)
	require.NoError(t, err)
	missed, err := f.attendance.CreateSession(ctx, f.tutor.Principal(), c.ID)
	require.NoError(t, err)

	records, err := f.svc.Attendance(ctx, f.student.Principal())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, missed.ID, records[0].ID)
	assert.False(t, records[0].WasPresent)
	assert.Equal(t, 0, records[0].TotalPresent)
	assert.Equal(t, attended.ID, records[1].ID)
	assert.True(t, records[1].WasPresent)
	assert.Equal(t, 1, records[1].TotalPresent)
	assert.Equal(t, "Maths", records[1].CourseTitle)

	records, err = f.svc.Attendance(ctx, f.admin.Principal())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_Progress(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	thirds := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Thirds", f.student)
	empty := testutil.CreateCourse(t, f.crsRepo, f.tutor, "Empty", f.student)

	var asgs []course.Assignment
	for _, title := range []string{"A1", "A2", "A3"} {
		asgs = append(asgs, testutil.AddAssignment(t, f.crsRepo, thirds.ID, title))
	}
	for _, a := range asgs[:2] {
		_, err := f.subs.Submit(ctx, f.student.Principal(), thirds.ID, a.ID, testutil.NewUpload(a.Title+".pdf", "x"))
		require.NoError(t, err)
	}
	// resubmitting does not count twice
	_, err := f.subs.Submit(ctx, f.student.Principal(), thirds.ID, asgs[0].ID, testutil.NewUpload("again.pdf", "x"))
	require.NoError(t, err)

	progress, err := f.svc.Progress(ctx, f.student.Principal())
	require.NoError(t, err)
	require.Len(t, progress, 2)

	byCourse := map[string]student.Progress{}
	for _, p := range progress {
		byCourse[p.CourseID] = p
	}
	assert.Equal(t, student.Progress{CourseID: thirds.ID, CourseTitle: "Thirds", Submitted: 2, Total: 3, Progress: 67}, byCourse[thirds.ID])
	assert.Equal(t, student.Progress{CourseID: empty.ID, CourseTitle: "Empty", Submitted: 0, Total: 0, Progress: 0}, byCourse[empty.ID])
}
