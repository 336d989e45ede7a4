package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/tests"
)

func attendanceRecord(t *testing.T, resp envelope) attendance.Record {
	var r attendance.Record
	require.NoError(t, json.Unmarshal(resp.Attendance, &r))
	return r
}

// Tutor opens a session, the enrolled student marks present, then the session closes.
func Test_attendanceApi_session(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.usrRepo, "Tutor", "tutor@test.cd", "", user.RoleTutor, true)
	otherTutor := testutil.CreateUser(t, env.usrRepo, "Other", "other@test.cd", "", user.RoleTutor, true)
	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	late := testutil.CreateUser(t, env.usrRepo, "Late", "late@test.cd", "", user.RoleStudent, true)
	tutorToken := getToken(t, env.conf, tutor)
	studentToken := getToken(t, env.conf, student)

	// create the course & enroll through the API
	req, rec := newAuthRequest(http.MethodPost, "/api/courses", tutorToken, []byte(`{"title":"Algebra"}`))
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crsResp envelope
	decode(t, rec, &crsResp)
	courseID := crsResp.Course.ID

	req, rec = newAuthRequest(http.MethodPost, "/api/courses/"+courseID+"/enroll", studentToken)
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("create rejections", func(t *testing.T) {
		tests := []httpTest{
			{name: "Auth required", path: "/api/attendance/create/" + courseID, wantCode: http.StatusUnauthorized},
			{name: "student", path: "/api/attendance/create/" + courseID, token: studentToken, wantCode: http.StatusForbidden},
			{name: "not the course tutor", path: "/api/attendance/create/" + courseID, token: getToken(t, env.conf, otherTutor), wantCode: http.StatusForbidden},
			{name: "unknown course", path: "/api/attendance/create/lol", token: tutorToken, wantCode: http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token)
				env.serve(req, rec)
				checkCode(t, tt, rec)
			})
		}
	})

	req, rec = newAuthRequest(http.MethodPost, "/api/attendance/create/"+courseID, tutorToken)
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp envelope
	decode(t, rec, &resp)
	session := attendanceRecord(t, resp)
	assert.Equal(t, attendance.StatusOpen, session.Status)
	assert.Equal(t, 1, session.TotalEnrolled)
	assert.Empty(t, session.PresentStudents)

	// enrollment growing later does not change the snapshot
	req, rec = newAuthRequest(http.MethodPost, "/api/courses/"+courseID+"/enroll", getToken(t, env.conf, late))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	markPath := "/api/attendance/mark/" + session.ID

	t.Run("mark", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, markPath, studentToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp envelope
		decode(t, rec, &resp)
		r := attendanceRecord(t, resp)
		assert.False(t, resp.AlreadyMarked)
		assert.Equal(t, []string{student.ID}, r.PresentStudents)
		assert.Equal(t, 1, r.TotalEnrolled)
		assert.Equal(t, 1.0, r.PresenceRatio())

		req, rec = newAuthRequest(http.MethodPost, markPath, studentToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		resp = envelope{}
		decode(t, rec, &resp)
		assert.True(t, resp.AlreadyMarked)
		assert.Equal(t, "Already marked present", resp.Msg)
		assert.Equal(t, []string{student.ID}, attendanceRecord(t, resp).PresentStudents)
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/attendance/course/"+courseID, studentToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp envelope
		decode(t, rec, &resp)
		require.Len(t, resp.Records, 1)
		require.NotNil(t, resp.Records[0].WasPresent)
		assert.True(t, *resp.Records[0].WasPresent)
		assert.Equal(t, 1, resp.Records[0].TotalPresent)

		req, rec = newAuthRequest(http.MethodGet, "/api/attendance/course/"+courseID, tutorToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		resp = envelope{}
		decode(t, rec, &resp)
		require.Len(t, resp.Records, 1)
		assert.Nil(t, resp.Records[0].WasPresent)
		assert.Equal(t, 1.0, resp.Records[0].PresenceRatio)

		req, rec = newAuthRequest(http.MethodGet, "/api/attendance/course/"+courseID, getToken(t, env.conf, otherTutor))
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("close", func(t *testing.T) {
		closePath := "/api/attendance/close/" + session.ID

		req, rec := newAuthRequest(http.MethodPatch, closePath, getToken(t, env.conf, otherTutor))
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		for i := 0; i < 2; i++ { // closing twice is a no-op
			req, rec = newAuthRequest(http.MethodPatch, closePath, tutorToken)
			env.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp envelope
			decode(t, rec, &resp)
			r := attendanceRecord(t, resp)
			assert.Equal(t, attendance.StatusClosed, r.Status)
			assert.NotNil(t, r.ClosedAt)
		}

		req, rec = newAuthRequest(http.MethodPost, markPath, getToken(t, env.conf, late))
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Msg: attendance.ErrClosed.Error()}),
		}, rec)
	})

	assert.Equal(t, []string{
		core.EventCourseEnrolled,
		core.EventAttendanceOpened,
		core.EventCourseEnrolled,
		core.EventAttendanceClosed,
	}, env.events.Types())
}

// Only enrolled students may mark presence.
func Test_attendanceApi_markRequiresEnrollment(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.usrRepo, "Tutor", "tutor@test.cd", "", user.RoleTutor, true)
	s1 := testutil.CreateUser(t, env.usrRepo, "One", "one@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, env.usrRepo, "Two", "two@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, env.usrRepo, "Three", "three@test.cd", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, env.crsRepo, tutor, "Algebra", s1, s2)

	req, rec := newAuthRequest(http.MethodPost, "/api/attendance/create/"+c.ID, getToken(t, env.conf, tutor))
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp envelope
	decode(t, rec, &resp)
	session := attendanceRecord(t, resp)
	assert.Equal(t, 2, session.TotalEnrolled)

	tests := []httpTest{
		{name: "outsider", token: getToken(t, env.conf, outsider), wantCode: http.StatusForbidden},
		{name: "tutor", token: getToken(t, env.conf, tutor), wantCode: http.StatusForbidden},
		{name: "enrolled", token: getToken(t, env.conf, s2), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/attendance/mark/"+session.ID, tt.token)
			env.serve(req, rec)
			checkCode(t, tt, rec)
		})
	}

	req, rec = newAuthRequest(http.MethodPost, "/api/attendance/mark/lol", getToken(t, env.conf, s1))
	env.serve(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
