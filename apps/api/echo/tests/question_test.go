package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/tests"
)

func Test_questionApi(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.usrRepo, "Tutor", "tutor@test.cd", "", user.RoleTutor, true)
	otherTutor := testutil.CreateUser(t, env.usrRepo, "Other", "other@test.cd", "", user.RoleTutor, true)
	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, env.usrRepo, "Outsider", "out@test.cd", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, env.crsRepo, tutor, "Go", student)
	tutorToken := getToken(t, env.conf, tutor)
	studentToken := getToken(t, env.conf, student)

	t.Run("ask", func(t *testing.T) {
		tests := []httpTest{
			{name: "Auth required", body: []byte(`{"courseId":"` + c.ID + `","message":"hi"}`), wantCode: http.StatusUnauthorized},
			{name: "students only", token: tutorToken, body: []byte(`{"courseId":"` + c.ID + `","message":"hi"}`), wantCode: http.StatusForbidden},
			{name: "not enrolled", token: getToken(t, env.conf, outsider), body: []byte(`{"courseId":"` + c.ID + `","message":"hi"}`), wantCode: http.StatusForbidden},
			{name: "unknown course", token: studentToken, body: []byte(`{"courseId":"lol","message":"hi"}`), wantCode: http.StatusNotFound},
			{name: "message required", token: studentToken, body: []byte(`{"courseId":"` + c.ID + `","message":" "}`), wantCode: http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodPost, "/api/questions", tt.token, []byte(tt.body))
				env.serve(req, rec)
				checkCode(t, tt, rec)
			})
		}
	})

	req, rec := newAuthRequest(http.MethodPost, "/api/questions", studentToken, []byte(`{"courseId":"`+c.ID+`","message":" How do channels work? "}`))
	env.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q question.Question
	decode(t, rec, &q)
	assert.Equal(t, "How do channels work?", q.Message)
	assert.Equal(t, tutor.ID, q.TutorID)
	assert.Nil(t, q.Answer)

	t.Run("answer", func(t *testing.T) {
		tests := []httpTest{
			{name: "tutors only", token: studentToken, path: q.ID, body: []byte(`{"answer":"42"}`), wantCode: http.StatusForbidden},
			{name: "not the course tutor", token: getToken(t, env.conf, otherTutor), path: q.ID, body: []byte(`{"answer":"42"}`), wantCode: http.StatusForbidden},
			{name: "answer required", token: tutorToken, path: q.ID, body: []byte(`{"answer":""}`), wantCode: http.StatusBadRequest},
			{name: "unknown question", token: tutorToken, path: "lol", body: []byte(`{"answer":"42"}`), wantCode: http.StatusNotFound},
			{name: "answered", token: tutorToken, path: q.ID, body: []byte(`{"answer":"Read the tour."}`), wantCode: http.StatusOK},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodPatch, "/api/questions/answer/"+tt.path, tt.token, []byte(tt.body))
				env.serve(req, rec)
				checkCode(t, tt, rec)
			})
		}
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/questions/"+c.ID, getToken(t, env.conf, outsider))
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		for _, token := range []string{studentToken, tutorToken} {
			req, rec := newAuthRequest(http.MethodGet, "/api/questions/"+c.ID, token)
			env.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)
			var qs []question.Question
			decode(t, rec, &qs)
			require.Len(t, qs, 1)
			require.NotNil(t, qs[0].Answer)
			assert.Equal(t, "Read the tour.", *qs[0].Answer)
		}
	})
}
