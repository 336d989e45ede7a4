package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/tests"
)

func Test_submissionApi_lifecycle(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.usrRepo, "Tutor", "tutor@test.cd", "", user.RoleTutor, true)
	otherTutor := testutil.CreateUser(t, env.usrRepo, "Other", "other@test.cd", "", user.RoleTutor, true)
	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, env.usrRepo, "Outsider", "out@test.cd", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, env.crsRepo, tutor, "Go", student)
	asg := testutil.AddAssignment(t, env.crsRepo, c.ID, "HW 1")

	path := "/api/submissions/" + c.ID + "/" + asg.ID
	studentToken := getToken(t, env.conf, student)
	tutorToken := getToken(t, env.conf, tutor)

	submit := func(t *testing.T, token, filename, content string) (*envelope, int) {
		req, rec := newUploadRequest(t, http.MethodPost, path, token, nil, filename, content)
		env.serve(req, rec)
		var resp envelope
		decode(t, rec, &resp)
		return &resp, rec.Code
	}
	grade := func(t *testing.T, token, subID string, g submission.Grading) (*envelope, int) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/submissions/"+subID+"/grade", token, marchallObj(t, g))
		env.serve(req, rec)
		var resp envelope
		decode(t, rec, &resp)
		return &resp, rec.Code
	}

	t.Run("submit rejections", func(t *testing.T) {
		tests := []struct {
			name     string
			token    string
			path     string
			filename string
			wantCode int
		}{
			{name: "not enrolled", token: getToken(t, env.conf, outsider), path: path, filename: "a.txt", wantCode: http.StatusForbidden},
			{name: "unknown assignment", token: studentToken, path: "/api/submissions/" + c.ID + "/lol", filename: "a.txt", wantCode: http.StatusNotFound},
			{name: "unknown course", token: studentToken, path: "/api/submissions/lol/" + asg.ID, filename: "a.txt", wantCode: http.StatusNotFound},
			{name: "file required", token: studentToken, path: path, wantCode: http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newUploadRequest(t, http.MethodPost, tt.path, tt.token, nil, tt.filename, "x")
				env.serve(req, rec)
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			})
		}
		assert.Empty(t, testutil.StoredFiles(t, env.conf.Uploads.Dir))
	})

	resp, code := submit(t, studentToken, "v1.txt", "first")
	require.Equal(t, http.StatusOK, code)
	first := resp.Submission
	assert.False(t, resp.Updated)
	assert.Equal(t, student.ID, first.StudentID)
	assert.Equal(t, "v1.txt", first.OriginalName)
	assert.Nil(t, first.PreviousSubmissionID)

	resp, code = submit(t, studentToken, "v2.txt", "second")
	require.Equal(t, http.StatusOK, code)
	second := resp.Submission
	assert.True(t, resp.Updated)
	require.NotNil(t, second.PreviousSubmissionID)
	assert.Equal(t, first.ID, *second.PreviousSubmissionID)

	t.Run("grading rules", func(t *testing.T) {
		g := 15.0
		neg := -1.0
		_, code := grade(t, getToken(t, env.conf, otherTutor), second.ID, submission.Grading{Grade: &g})
		assert.Equal(t, http.StatusForbidden, code)

		_, code = grade(t, tutorToken, second.ID, submission.Grading{Grade: &neg})
		assert.Equal(t, http.StatusBadRequest, code)

		_, code = grade(t, tutorToken, "lol", submission.Grading{Grade: &g})
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("feedback alone does not lock", func(t *testing.T) {
		fb := " Nice start "
		resp, code := grade(t, tutorToken, second.ID, submission.Grading{Feedback: &fb})
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, resp.Submission.Feedback)
		assert.Equal(t, "Nice start", *resp.Submission.Feedback)
		assert.Nil(t, resp.Submission.Grade)

		resp, code = submit(t, studentToken, "v3.txt", "third")
		require.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Updated)
		second = resp.Submission
	})

	t.Run("grade locks", func(t *testing.T) {
		g := 18.5
		resp, code := grade(t, tutorToken, second.ID, submission.Grading{Grade: &g})
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, resp.Submission.Grade)
		assert.Equal(t, g, *resp.Submission.Grade)
		require.NotNil(t, resp.Submission.GradedBy)
		assert.Equal(t, tutor.ID, *resp.Submission.GradedBy)

		req, rec := newUploadRequest(t, http.MethodPost, path, studentToken, nil, "v4.txt", "fourth")
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Msg: submission.ErrLocked.Error(), Locked: true}),
		}, rec)
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, studentToken)
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, path, tutorToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp envelope
		decode(t, rec, &resp)
		require.Len(t, resp.Submissions, 1)
		assert.Equal(t, second.ID, resp.Submissions[0].ID)
		assert.False(t, resp.Submissions[0].Archived)
	})

	t.Run("mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"/me", studentToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp envelope
		decode(t, rec, &resp)
		assert.Equal(t, second.ID, resp.Submission.ID)

		req, rec = newAuthRequest(http.MethodGet, path+"/me", getToken(t, env.conf, outsider))
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"success":true,"submission":null}`)}, rec)
	})

	t.Run("history", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"/me/history", studentToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp envelope
		decode(t, rec, &resp)
		require.Len(t, resp.Submissions, 3)
		assert.Equal(t, second.ID, resp.Submissions[0].ID)
		assert.Equal(t, first.ID, resp.Submissions[2].ID)
		assert.False(t, resp.Submissions[0].Archived)
		assert.True(t, resp.Submissions[1].Archived)
		assert.True(t, resp.Submissions[2].Archived)
	})

	// each superseded file stays on disk for the history
	assert.Len(t, testutil.StoredFiles(t, env.conf.Uploads.Dir), 3)
	assert.Equal(t, []string{
		core.EventSubmissionSubmitted,
		core.EventSubmissionSubmitted,
		core.EventSubmissionGraded,
		core.EventSubmissionSubmitted,
		core.EventSubmissionGraded,
	}, env.events.Types())
}

func Test_submissionApi_dueDateIsInformational(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.usrRepo, "Tutor", "tutor@test.cd", "", user.RoleTutor, true)
	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, env.crsRepo, tutor, "Go", student)
	asg := testutil.AddAssignment(t, env.crsRepo, c.ID, "Late", core.NowFunc().AddDate(0, 0, -7))

	req, rec := newUploadRequest(t, http.MethodPost, "/api/submissions/"+c.ID+"/"+asg.ID, getToken(t, env.conf, student), nil, "late.txt", "sorry")
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
