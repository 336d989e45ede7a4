package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kipkoec77/Edureach/apps/api/echo"
	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/student"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/email"
	"github.com/kipkoec77/Edureach/services/events"
	"github.com/kipkoec77/Edureach/services/filestore"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

var errMissingToken = httpErr{Msg: "missing or malformed jwt"}

type testEnv struct {
	app     *echoapi.Server
	conf    *core.Config
	usrRepo user.Repository
	crsRepo course.Repository
	events  *events.Recorder
}

func setup(t *testing.T) testEnv {
	conf := core.NewTestConfig()
	conf.Uploads.Dir = t.TempDir()
	conf.Uploads.URLPrefix = "/uploads"
	logger := testutil.NewLogger(conf)

	validate, translator := testutil.NewValidator()
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)

	// set up services
	files, err := filestore.NewDiskStorage(conf.Uploads.Dir, conf.Uploads.URLPrefix)
	require.NoError(t, err)
	rec := events.NewRecorder()
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf)

	// set up server
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		CourseSvc:     course.NewService(crsRepo, files, rec, logger),
		SubmissionSvc: submission.NewService(subRepo, crsRepo, files, rec, logger),
		AttendanceSvc: attendance.NewService(attRepo, crsRepo, rec, logger),
		DiscussionSvc: discussion.NewService(inmemdb.NewDiscussionRepository(db), crsRepo),
		StudentSvc:    student.NewService(crsRepo, subRepo, attRepo),
		TutorAppSvc:   tutorapp.NewService(inmemdb.NewApplicationRepository(db), usrSvc, logger),
		QuestionSvc:   question.NewService(inmemdb.NewQuestionRepository(db), crsRepo),
	})

	return testEnv{app: app, conf: conf, usrRepo: usrRepo, crsRepo: crsRepo, events: rec}
}

func (env testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Msg    string            `json:"msg"`
	Fields map[string]string `json:"fields,omitempty"`
	Locked bool              `json:"locked,omitempty"`
}

// envelope holds every field the API wraps its payloads in.
type envelope struct {
	Success       bool                    `json:"success"`
	Msg           string                  `json:"msg"`
	Course        course.Course           `json:"course"`
	Courses       []course.Course         `json:"courses"`
	Note          course.Note             `json:"note"`
	Assignment    course.Assignment       `json:"assignment"`
	Announcement  course.Announcement     `json:"announcement"`
	Announcements []course.Announcement   `json:"announcements"`
	Students      []rosterEntry           `json:"students"`
	Messages      []discussion.Message    `json:"messages"`
	Submission    submission.Submission   `json:"submission"`
	Submissions   []submission.Submission `json:"submissions"`
	Updated       bool                    `json:"updated"`
	Attendance    json.RawMessage         `json:"attendance"`
	AlreadyMarked bool                    `json:"alreadyMarked"`
	Records       []attendance.View       `json:"records"`
}

type rosterEntry struct {
	course.Enrollment
	Name  string `json:"name"`
	Email string `json:"email"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request; an empty filename sends no file.
func newUploadRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	filename, content string,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	checkCode(t, tt, rec)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// checkFields compares the field errors of a validation error response.
func checkFields(t *testing.T, rec *httptest.ResponseRecorder, want map[string]string) {
	var got httpErr
	decode(t, rec, &got)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, want, got.Fields)
	assert.NotEmpty(t, got.Msg)
}
