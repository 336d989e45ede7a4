package attendance_test

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
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/events"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

type fixture struct {
	svc      *attendance.Service
	events   *events.Recorder
	tutor    user.User
	tutor2   user.User
	students []user.User
	outsider user.User
	course   course.Course
}

func setup(t *testing.T) fixture {
	testutil.StubClock(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	rec := events.NewRecorder()

	f := fixture{events: rec}
	f.tutor = testutil.CreateUser(t, usrRepo, "Tutor", "tutor@test.io", "", user.RoleTutor, true)
	f.tutor2 = testutil.CreateUser(t, usrRepo, "Tutor 2", "tutor2@test.io", "", user.RoleTutor, true)
	for _, email := range []string{"s1@test.io", "s2@test.io", "s3@test.io"} {
		f.students = append(f.students, testutil.CreateUser(t, usrRepo, email, email, "", user.RoleStudent, true))
	}
	f.outsider = testutil.CreateUser(t, usrRepo, "Outsider", "out@test.io", "", user.RoleStudent, true)
	f.course = testutil.CreateCourse(t, crsRepo, f.tutor, "Physics", f.students...)
	f.svc = attendance.NewService(inmemdb.NewAttendanceRepository(db), crsRepo, rec, testutil.NewLogger(core.NewTestConfig()))
	return f
}

func TestService_CreateSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tests := []struct {
		name     string
		usr      user.User
		courseID string
		wantErr  error
	}{
		{name: "unknown course", usr: f.tutor, courseID: "nope", wantErr: course.ErrNotFound},
		{name: "other tutor", usr: f.tutor2, courseID: f.course.ID, wantErr: attendance.ErrNotCourseTutor},
		{name: "student", usr: f.students[0], courseID: f.course.ID, wantErr: attendance.ErrNotCourseTutor},
		{name: "course tutor", usr: f.tutor, courseID: f.course.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.svc.CreateSession(ctx, tt.usr.Principal(), tt.courseID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, r.ID)
			assert.Equal(t, attendance.StatusOpen, r.Status)
			assert.Equal(t, 3, r.TotalEnrolled)
			assert.Empty(t, r.PresentStudents)
			assert.Equal(t, f.tutor.ID, r.TutorID)
		})
	}
	assert.Equal(t, []string{core.EventAttendanceOpened}, f.events.Types())
}

func TestService_MarkPresent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	r, err := f.svc.CreateSession(ctx, f.tutor.Principal(), f.course.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkPresent(ctx, f.outsider.Principal(), r.ID)
	assert.Equal(t, attendance.ErrNotEnrolled, errors.Cause(err))

	_, err = f.svc.MarkPresent(ctx, f.students[0].Principal(), "nope")
	assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))

	res, err := f.svc.MarkPresent(ctx, f.students[0].Principal(), r.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyMarked)
	assert.Equal(t, []string{f.students[0].ID}, res.Record.PresentStudents)

	res, err = f.svc.MarkPresent(ctx, f.students[0].Principal(), r.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyMarked)
	assert.Len(t, res.Record.PresentStudents, 1)

	_, err = f.svc.CloseSession(ctx, f.tutor.Principal(), r.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkPresent(ctx, f.students[1].Principal(), r.ID)
	assert.Equal(t, attendance.ErrClosed, errors.Cause(err))
	assert.IsType(t, &core.StateError{}, errors.Cause(err))
}

func TestService_CloseSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	r, err := f.svc.CreateSession(ctx, f.tutor.Principal(), f.course.ID)
	require.NoError(t, err)
	f.events.Reset()

	_, err = f.svc.CloseSession(ctx, f.tutor2.Principal(), r.ID)
	assert.Equal(t, attendance.ErrNotCreator, errors.Cause(err))
	_, err = f.svc.CloseSession(ctx, f.students[0].Principal(), r.ID)
	assert.Equal(t, attendance.ErrNotCreator, errors.Cause(err))

	closed, err := f.svc.CloseSession(ctx, f.tutor.Principal(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	again, err := f.svc.CloseSession(ctx, f.tutor.Principal(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, *closed.ClosedAt, *again.ClosedAt)
	assert.Equal(t, []string{core.EventAttendanceClosed}, f.events.Types())
}

func TestService_ListForCourse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	older, err := f.svc.CreateSession(ctx, f.tutor.Principal(), f.course.ID)
	require.NoError(t, err)
	newer, err := f.svc.CreateSession(ctx, f.tutor.Principal(), f.course.ID)
	require.NoError(t, err)
	for _, s := range f.students[:2] {
		_, err = f.svc.MarkPresent(ctx, s.Principal(), older.ID)
		require.NoError(t, err)
	}

	_, err = f.svc.ListForCourse(ctx, f.outsider.Principal(), f.course.ID)
	assert.Equal(t, course.ErrNotMember, errors.Cause(err))

	views, err := f.svc.ListForCourse(ctx, f.tutor.Principal(), f.course.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, 2, views[1].TotalPresent)
	assert.Equal(t, 0.67, views[1].PresenceRatio)
	assert.Nil(t, views[1].WasPresent)

	views, err = f.svc.ListForCourse(ctx, f.students[2].Principal(), f.course.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[1].WasPresent)
	assert.False(t, *views[1].WasPresent)

	views, err = f.svc.ListForCourse(ctx, f.students[0].Principal(), f.course.ID)
	require.NoError(t, err)
	assert.True(t, *views[1].WasPresent)
}

func TestRecord_PresenceRatio(t *testing.T) {
	present := func(n int) []string {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		return ids
	}
	tests := []struct {
		name     string
		enrolled int
		present  int
		want     float64
	}{
		{name: "nobody enrolled", enrolled: 0, present: 0, want: 0},
		{name: "nobody present", enrolled: 4, present: 0, want: 0},
		{name: "one third", enrolled: 3, present: 1, want: 0.33},
		{name: "two thirds", enrolled: 3, present: 2, want: 0.67},
		{name: "everybody", enrolled: 5, present: 5, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := attendance.Record{TotalEnrolled: tt.enrolled, PresentStudents: present(tt.present)}
			if got := r.PresenceRatio(); got != tt.want {
				t.Errorf("PresenceRatio() = %v; want %v", got, tt.want)
			}
		})
	}
}
