package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/tests"
)

func Test_tutorAppApi_approval(t *testing.T) {
	env := setup(t)
	applicant := testutil.CreateUser(t, env.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	rejected := testutil.CreateUser(t, env.usrRepo, "Nope", "nope@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	applicantToken := getToken(t, env.conf, applicant)
	adminToken := getToken(t, env.conf, admin)

	apply := func(t *testing.T, token, body string) (*tutorapp.Application, int) {
		req, rec := newAuthRequest(http.MethodPost, "/api/tutors/apply", token, []byte(body))
		env.serve(req, rec)
		if rec.Code != http.StatusCreated {
			return nil, rec.Code
		}
		var a tutorapp.Application
		decode(t, rec, &a)
		return &a, rec.Code
	}

	_, code := apply(t, applicantToken, `{"certificateURL":"lol"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	app, code := apply(t, applicantToken, `{"subjects":[" maths ","physics"],"experience":"5 years","certificateURL":"https://test.cd/cert.pdf"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, tutorapp.StatusPending, app.Status)
	assert.Equal(t, []string{"maths", "physics"}, app.Subjects)
	assert.Equal(t, applicant.ID, app.UserID)

	_, code = apply(t, applicantToken, `{"subjects":["maths"]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	other, code := apply(t, getToken(t, env.conf, rejected), `{}`)
	require.Equal(t, http.StatusCreated, code)

	t.Run("pending", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/tutors/pending", applicantToken)
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/tutors/pending", adminToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var pending []tutorapp.PendingApplication
		decode(t, rec, &pending)
		require.Len(t, pending, 2)
		for _, p := range pending {
			require.NotNil(t, p.Applicant)
			assert.Equal(t, p.UserID, p.Applicant.ID)
		}
	})

	// a student cannot create courses yet
	req, rec := newAuthRequest(http.MethodPost, "/api/courses", applicantToken, []byte(`{"title":"Maths"}`))
	env.serve(req, rec)
	require.Equal(t, http.StatusForbidden, rec.Code)

	tests := []struct {
		name       string
		token      string
		id         string
		body       string
		wantCode   int
		wantStatus tutorapp.Status
	}{
		{name: "Admin required", token: applicantToken, id: app.ID, wantCode: http.StatusForbidden},
		{name: "unknown status", token: adminToken, id: app.ID, body: `{"status":"lol"}`, wantCode: http.StatusBadRequest},
		{name: "unknown application", token: adminToken, id: "lol", wantCode: http.StatusNotFound},
		{name: "rejected", token: adminToken, id: other.ID, body: `{"status":"rejected"}`, wantCode: http.StatusOK, wantStatus: tutorapp.StatusRejected},
		{name: "approved by default", token: adminToken, id: app.ID, wantCode: http.StatusOK, wantStatus: tutorapp.StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			req, rec := newAuthRequest(http.MethodPatch, "/api/tutors/approve/"+tt.id, tt.token, body)
			env.serve(req, rec)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantStatus != "" {
				var a tutorapp.Application
				decode(t, rec, &a)
				assert.Equal(t, tt.wantStatus, a.Status)
			}
		})
	}

	// the promotion applies to tokens issued before it
	req, rec = newAuthRequest(http.MethodPost, "/api/courses", applicantToken, []byte(`{"title":"Maths"}`))
	env.serve(req, rec)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/api/courses", getToken(t, env.conf, rejected), []byte(`{"title":"Physics"}`))
	env.serve(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
